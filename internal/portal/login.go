package portal

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"goa.design/clue/log"
	"golang.org/x/net/html"
)

// Login runs one full login attempt: fetch the login page, locate and
// download the CAPTCHA image, solve it, submit the form, classify the
// response. A nil return means the portal authenticated the session; the
// session cookies now live in the client's jar.
//
// Failure modes, in order of appearance: *TransportError (portal
// unreachable or bad status), ErrCaptchaNotFound, captcha.ErrUnresolved,
// *AuthError (submitted but rejected). All are recoverable by retrying the
// whole attempt; none of them is distinguishable enough to shortcut the
// retry loop.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.get(ctx, "fetch login page", c.abs(loginPath), nil, nil)
	if err != nil {
		return err
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: login page: %v", ErrParse, err)
	}

	src, ok := findCaptchaImage(doc)
	if !ok {
		return ErrCaptchaNotFound
	}
	captchaURL, err := c.resolve(src)
	if err != nil {
		return err
	}
	log.Debugf(ctx, "login page loaded, captcha at %s", captchaURL)

	img, err := c.get(ctx, "download captcha", captchaURL, nil, nil)
	if err != nil {
		return err
	}
	log.Debugf(ctx, "captcha downloaded (%d bytes)", len(img))

	text, err := c.solver.Solve(ctx, img)
	if err != nil {
		return err
	}
	log.Debugf(ctx, "captcha recognized (%d chars)", len(text))

	form := url.Values{
		"campus-id": {username},
		"password":  {password},
		"captcha":   {text},
	}
	// The login form usually embeds its own anti-forgery token; include it
	// when present, omit it when not.
	if tok, ok := findHiddenToken(doc); ok {
		form.Set("_token", tok)
	}

	resp, err := c.postForm(ctx, "submit login", c.abs(authPath), form, nil)
	if err != nil {
		return err
	}
	status := ClassifyLogin(string(resp))
	log.Debugf(ctx, "login response classified: %s", status)
	if status != AuthOK {
		return &AuthError{Status: status}
	}
	return nil
}
