package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/xmum-booking/internal/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "First-time setup: save credentials to ~/.xmu_booking.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("XMUM Booking — First-time Setup")
			fmt.Println("Credentials are saved locally (mode 0600), never uploaded anywhere.")
			fmt.Println()

			in := bufio.NewReader(os.Stdin)

			fmt.Print("Campus ID: ")
			username, err := in.ReadString('\n')
			if err != nil {
				return err
			}
			username = strings.TrimSpace(username)

			fmt.Print("Password: ")
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return err
			}

			if username == "" || len(pw) == 0 {
				return fmt.Errorf("username and password cannot be empty")
			}

			fmt.Print("Gemini API key [optional, Enter to skip]: ")
			key, err := in.ReadString('\n')
			if err != nil {
				return err
			}

			path, err := config.SaveCredentials(config.Credentials{
				Username:  username,
				Password:  string(pw),
				GeminiKey: strings.TrimSpace(key),
			})
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Saved to %s\n", path)
			fmt.Println("\nSetup complete! You can now run: xmubook book")
			return nil
		},
	}
}
