package middleware

import (
	"net/http"
	"strings"
)

// GuardPolicy is the canonical route-guard rule table. The two app surfaces
// ship different policies as plain values instead of duplicating imperative
// guard logic per app.
type GuardPolicy struct {
	// Protected path prefixes require a session; anonymous requests are
	// redirected to LoginPath.
	Protected []string

	LoginPath     string
	DashboardPath string

	// RedirectAuthedFromLogin sends an already-authenticated request for
	// LoginPath to DashboardPath. The school portal keeps this off: a stale
	// cookie referencing a dead session would otherwise bounce the browser
	// between /login and /dashboard forever.
	RedirectAuthedFromLogin bool

	// Bypass prefixes skip the guard entirely: the backend API has its own
	// auth, and static assets need no session.
	Bypass []string
}

// AdminGuardPolicy is the operator-console rule set.
func AdminGuardPolicy() GuardPolicy {
	return GuardPolicy{
		Protected:               []string{"/dashboard"},
		LoginPath:               "/login",
		DashboardPath:           "/dashboard",
		RedirectAuthedFromLogin: true,
		Bypass:                  []string{"/api", "/static", "/favicon.ico", "/health", "/metrics"},
	}
}

// TenantGuardPolicy is the school-portal rule set: same /dashboard gating,
// no login redirect for authenticated callers.
func TenantGuardPolicy() GuardPolicy {
	return GuardPolicy{
		Protected:               []string{"/dashboard"},
		LoginPath:               "/login",
		DashboardPath:           "/dashboard",
		RedirectAuthedFromLogin: false,
		Bypass:                  []string{"/api", "/static", "/favicon.ico", "/theme.css", "/health", "/metrics"},
	}
}

func hasPrefixAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Guard enforces the policy once per request, before any handler runs.
// Stateless: its only effect is the redirect response.
func Guard(policy GuardPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if hasPrefixAny(path, policy.Bypass) {
				next.ServeHTTP(w, r)
				return
			}

			sess := SessionFromContext(r.Context())

			if hasPrefixAny(path, policy.Protected) && sess == nil {
				http.Redirect(w, r, policy.LoginPath, http.StatusSeeOther)
				return
			}

			if policy.RedirectAuthedFromLogin && path == policy.LoginPath && sess != nil {
				http.Redirect(w, r, policy.DashboardPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
