package portal

import (
	"strings"

	"golang.org/x/net/html"
)

// Small DOM helpers over x/net/html. The portal's markup is server
// rendered and shallow; depth-first traversal in document order is all the
// selector machinery needed.

func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func eachNode(n *html.Node, visit func(*html.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		eachNode(c, visit)
	}
}

func isElement(n *html.Node, name string) bool {
	return n.Type == html.ElementNode && n.Data == name
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findCaptchaImage returns the src of the first img whose source mentions
// "captcha", case-insensitively.
func findCaptchaImage(doc *html.Node) (string, bool) {
	img := findNode(doc, func(n *html.Node) bool {
		return isElement(n, "img") && strings.Contains(strings.ToLower(attrVal(n, "src")), "captcha")
	})
	if img == nil {
		return "", false
	}
	return attrVal(img, "src"), true
}

// findHiddenToken returns the value of input[name=_token], if present.
func findHiddenToken(doc *html.Node) (string, bool) {
	inp := findNode(doc, func(n *html.Node) bool {
		return isElement(n, "input") && attrVal(n, "name") == "_token"
	})
	if inp == nil {
		return "", false
	}
	return attrVal(inp, "value"), true
}

// findCSRFMeta returns the content of meta[name=csrf-token], if present.
func findCSRFMeta(doc *html.Node) (string, bool) {
	meta := findNode(doc, func(n *html.Node) bool {
		return isElement(n, "meta") && attrVal(n, "name") == "csrf-token"
	})
	if meta == nil {
		return "", false
	}
	return attrVal(meta, "content"), true
}
