// Package portal is the HTTP client for the XMUM eServices portal. It owns
// the session cookies for a run and exposes the four interactions the
// booking flow needs: login, CSRF token extraction, slot discovery, and
// the booking commit.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/example/xmum-booking/internal/captcha"
)

const (
	loginPath   = "/"
	authPath    = "/authenticate"
	bookingPath = "/space-booking/library-space-booking"
	bookPath    = "/space-booking/book-library-room"
)

// Client drives the portal over one authenticated session. Not safe for
// concurrent use: the portal shares one CSRF token across the session and
// overlapping requests risk invalidating it.
type Client struct {
	hc     *http.Client
	base   *url.URL
	ua     string
	solver captcha.Solver
}

// New builds a portal client with a fresh cookie jar. timeout bounds every
// individual request so one unresponsive call cannot hang the run.
func New(baseURL, userAgent string, timeout time.Duration, solver captcha.Solver) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		hc:     &http.Client{Timeout: timeout, Jar: jar},
		base:   base,
		ua:     userAgent,
		solver: solver,
	}, nil
}

// resolve turns a possibly-relative href from portal markup into an
// absolute URL on the portal's origin.
func (c *Client) resolve(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: bad href %q", ErrParse, href)
	}
	return c.base.ResolveReference(u).String(), nil
}

// ajaxHeaders marks a request as script-driven the way the portal's own
// frontend does, and attaches the session's CSRF token.
func ajaxHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("X-CSRF-TOKEN", token)
	return h
}

func (c *Client) get(ctx context.Context, op, rawURL string, query url.Values, hdr http.Header) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, rawURL, query, "", nil, hdr)
}

func (c *Client) postForm(ctx context.Context, op, rawURL string, form url.Values, hdr http.Header) ([]byte, error) {
	body := form.Encode()
	return c.do(ctx, op, http.MethodPost, rawURL, nil, "application/x-www-form-urlencoded", strings.NewReader(body), hdr)
}

// do issues one request and returns the response body. Redirects are
// followed (the portal redirects to the dashboard on successful login).
// Network failures and non-2xx statuses come back as *TransportError.
func (c *Client) do(ctx context.Context, op, method, rawURL string, query url.Values, contentType string, body io.Reader, hdr http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("User-Agent", c.ua)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode}
	}
	return b, nil
}

// abs returns the absolute URL for a portal path.
func (c *Client) abs(path string) string {
	return c.base.String() + path
}
