package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pakainexus/schoolgate/internal/domain"
	"github.com/pakainexus/schoolgate/internal/session"
	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the request's session, or nil when the caller
// is unauthenticated.
func SessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return s
}

// WithSession is exported for handler tests that need an authenticated
// request context without running the middleware stack.
func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// LoadSession resolves the session cookie on every request and stores the
// result in the context. Absence of a session is not an error here; the
// guard and the handlers decide what an anonymous caller may do.
func LoadSession(mgr *session.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := mgr.Resolve(r.Context(), r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Error("session resolution failed", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects unauthenticated API calls with a JSON 401. Used on
// API subtrees where a redirect would be wrong.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole layers on top of RequireSession for subtrees restricted to a
// single role, like the operator console's tenant management API.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if sess.Role != role {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
