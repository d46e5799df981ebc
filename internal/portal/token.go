package portal

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Token fetches the booking page and extracts the anti-forgery token that
// every subsequent state-changing request must carry. It prefers the
// csrf-token meta tag, falling back to a hidden _token input. ErrTokenMissing
// means neither was present; callers must abort the run rather than attempt
// authenticated mutation without it.
func (c *Client) Token(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "fetch booking page", c.abs(bookingPath), nil, nil)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("%w: booking page: %v", ErrParse, err)
	}

	if tok, ok := findCSRFMeta(doc); ok && tok != "" {
		return tok, nil
	}
	if tok, ok := findHiddenToken(doc); ok && tok != "" {
		return tok, nil
	}
	return "", ErrTokenMissing
}
