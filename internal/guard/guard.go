package guard

import "strings"

const (
	PathLogin          = "/login"
	PathRoot           = "/"
	PathDashboard      = "/dashboard"
	PathWordLibrary    = "/word-library"
	PathCheckDuplicate = "/check-duplicate"
	PathReports        = "/reports"
)

var protected = map[string]struct{}{
	PathRoot:           {},
	PathDashboard:      {},
	PathWordLibrary:    {},
	PathCheckDuplicate: {},
	PathReports:        {},
}

// Decision is where navigation ends up. From holds the requested path when
// the guard redirected; the requested path is not remembered after login.
type Decision struct {
	Path       string
	Redirected bool
	From       string
}

// Public reports whether path renders without a session.
func Public(path string) bool { return clean(path) == PathLogin }

// Protected reports whether path is a known view that needs a session.
func Protected(path string) bool {
	_, ok := protected[clean(path)]
	return ok
}

// Resolve applies the routing table and then the authentication check.
// "/" renders the dashboard; unknown paths redirect to the dashboard and go
// through the check like any other protected view.
func Resolve(path string, authenticated bool) Decision {
	requested := clean(path)
	if requested == PathLogin {
		return Decision{Path: PathLogin}
	}
	d := Decision{Path: requested}
	switch {
	case requested == PathRoot:
		d.Path = PathDashboard
	case !Protected(requested):
		d = Decision{Path: PathDashboard, Redirected: true, From: requested}
	}
	if !authenticated {
		return Decision{Path: PathLogin, Redirected: true, From: requested}
	}
	return d
}

func clean(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return PathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = PathRoot
		}
	}
	return p
}
