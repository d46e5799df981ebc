package portal

import "strings"

// AuthStatus is the keyword-based classification of a login response.
type AuthStatus int

const (
	AuthOK AuthStatus = iota
	AuthCaptchaRejected
	AuthCredentialsRejected
	AuthUnknown
)

func (s AuthStatus) String() string {
	switch s {
	case AuthOK:
		return "authenticated"
	case AuthCaptchaRejected:
		return "incorrect captcha"
	case AuthCredentialsRejected:
		return "incorrect username or password"
	default:
		return "unknown failure"
	}
}

// The portal has no structured error API: success and failure both come
// back as free-form HTML, and the only signal is which words appear in it.
// The predicate table below is that heuristic, kept in one place so it is
// testable and replaceable when the portal's markup shifts. Rules are
// evaluated in order; the first hit wins.
type loginRule struct {
	any    []string // at least one must appear
	all    []string // every one must appear
	status AuthStatus
}

var loginRules = []loginRule{
	{any: []string{"logout", "dashboard"}, status: AuthOK},
	{all: []string{"captcha", "incorrect"}, status: AuthCaptchaRejected},
	{all: []string{"password", "incorrect"}, status: AuthCredentialsRejected},
}

// ClassifyLogin maps a login response body to an AuthStatus. Matching is
// case-insensitive substring search; a body matching no rule is
// AuthUnknown.
func ClassifyLogin(body string) AuthStatus {
	lower := strings.ToLower(body)
	for _, r := range loginRules {
		if r.matches(lower) {
			return r.status
		}
	}
	return AuthUnknown
}

func (r loginRule) matches(lower string) bool {
	for _, kw := range r.all {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	if len(r.any) == 0 {
		return len(r.all) > 0
	}
	for _, kw := range r.any {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
