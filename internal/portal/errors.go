package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptchaNotFound means the login page markup had no image whose
	// source mentions "captcha" — the portal changed or served an
	// unexpected page.
	ErrCaptchaNotFound = errors.New("captcha image not found on login page")

	// ErrTokenMissing means the booking page carried neither a csrf-token
	// meta tag nor a hidden _token input. No state-changing request may be
	// issued without the token, so callers treat this as fatal for the run.
	ErrTokenMissing = errors.New("csrf token not found")

	// ErrParse marks responses whose expected markup/JSON shape was absent.
	ErrParse = errors.New("unexpected response shape")
)

// TransportError covers network failures, timeouts, and non-2xx statuses.
type TransportError struct {
	Op     string
	Status int // non-zero when an HTTP response arrived
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError reports a login attempt the portal did not accept, carrying the
// keyword-based classification of the response body.
type AuthError struct {
	Status AuthStatus
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login rejected: %s", e.Status)
}

// BookingError is a portal-side booking rejection: the request went
// through, the portal said no.
type BookingError struct {
	Code    int
	Message string
}

func (e *BookingError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking rejected (code=%d)", e.Code)
	}
	return fmt.Sprintf("booking rejected (code=%d): %s", e.Code, e.Message)
}
