package main

import "github.com/example/xmum-booking/cmd"

func main() {
	cmd.Execute()
}
