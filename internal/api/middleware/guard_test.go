package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pakainexus/schoolgate/internal/domain"
)

func guardedRequest(path string, sess *domain.Session) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if sess != nil {
		r = r.WithContext(WithSession(r.Context(), sess))
	}
	return r
}

func activeSession() *domain.Session {
	return &domain.Session{
		ID:        "s-1",
		UserID:    "u-1",
		Role:      "school_admin",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func runGuard(policy GuardPolicy, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler := Guard(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, r)
	return rec
}

func TestGuard_AnonymousProtectedRedirectsToLogin(t *testing.T) {
	for _, policy := range []GuardPolicy{AdminGuardPolicy(), TenantGuardPolicy()} {
		for _, path := range []string{"/dashboard", "/dashboard/settings"} {
			rec := runGuard(policy, guardedRequest(path, nil))
			if rec.Code != http.StatusSeeOther {
				t.Errorf("%s: expected 303, got %d", path, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/login" {
				t.Errorf("%s: expected redirect to /login, got %q", path, loc)
			}
		}
	}
}

func TestGuard_AuthenticatedProtectedPasses(t *testing.T) {
	for _, policy := range []GuardPolicy{AdminGuardPolicy(), TenantGuardPolicy()} {
		rec := runGuard(policy, guardedRequest("/dashboard", activeSession()))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	}
}

func TestGuard_AnonymousLoginPasses(t *testing.T) {
	for _, policy := range []GuardPolicy{AdminGuardPolicy(), TenantGuardPolicy()} {
		rec := runGuard(policy, guardedRequest("/login", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	}
}

func TestGuard_AuthedLoginRedirectDiffersPerSurface(t *testing.T) {
	// Operator console bounces an authenticated /login to the dashboard.
	rec := runGuard(AdminGuardPolicy(), guardedRequest("/login", activeSession()))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("admin: expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("admin: expected redirect to /dashboard, got %q", loc)
	}

	// School portal serves /login regardless, so a cookie referencing a
	// dead session cannot bounce the browser in a loop.
	rec = runGuard(TenantGuardPolicy(), guardedRequest("/login", activeSession()))
	if rec.Code != http.StatusOK {
		t.Errorf("tenant: expected 200, got %d", rec.Code)
	}
}

func TestGuard_BypassSkipsGuard(t *testing.T) {
	tests := []struct {
		policy GuardPolicy
		paths  []string
	}{
		{AdminGuardPolicy(), []string{"/api/auth/login", "/static/app.js", "/health", "/metrics", "/favicon.ico"}},
		{TenantGuardPolicy(), []string{"/api/branding", "/theme.css", "/static/app.js", "/health"}},
	}
	for _, tt := range tests {
		for _, path := range tt.paths {
			rec := runGuard(tt.policy, guardedRequest(path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s: expected bypass, got %d", path, rec.Code)
			}
		}
	}
}

func TestGuard_PrefixMatchingIsPathSegmentAware(t *testing.T) {
	// /dashboardx is not under /dashboard.
	rec := runGuard(AdminGuardPolicy(), guardedRequest("/dashboardx", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected /dashboardx to pass unguarded, got %d", rec.Code)
	}
}
