package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/domain"
)

func testSession(id, token string) *domain.Session {
	return &domain.Session{
		ID:          id,
		UserID:      "u-1",
		Email:       "admin@school.example",
		AccessToken: token,
		Role:        "school_admin",
		TenantID:    "t-1",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestClient_AttachesBearerFromSession(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"tenant_id":"t-1","name":"Greenfield"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	if _, err := c.Profile(context.Background(), testSession("s-1", "tok-1")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClient_NoSessionNoHeader(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{"name":"Greenfield"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	if _, err := c.BrandingByDomain(context.Background(), "greenfield.paknexus.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hasAuth {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClient_TokenOverrideWins(t *testing.T) {
	c := New("http://backend", zap.NewNop())
	sess := testSession("s-1", "session-token")

	if got := c.Token(sess); got != "session-token" {
		t.Errorf("expected session token, got %q", got)
	}

	c.SetTokenOverride("override-token")
	if got := c.Token(sess); got != "override-token" {
		t.Errorf("expected override token, got %q", got)
	}
	if got := c.Token(nil); got != "override-token" {
		t.Errorf("expected override token without session, got %q", got)
	}

	c.SetTokenOverride("")
	if got := c.Token(sess); got != "session-token" {
		t.Errorf("expected session token after clearing override, got %q", got)
	}
	if got := c.Token(nil); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}

func TestClient_UnauthorizedSignsOutExactlyOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signOuts atomic.Int64
	c := New(srv.URL, zap.NewNop(), WithSignOut(func(ctx context.Context, sess *domain.Session) {
		signOuts.Add(1)
	}))

	sess := testSession("s-1", "tok-1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Profile(context.Background(), sess)
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		}()
	}
	wg.Wait()

	if got := signOuts.Load(); got != 1 {
		t.Errorf("expected exactly one sign-out, got %d", got)
	}

	// A different session gets its own sign-out.
	if _, err := c.Profile(context.Background(), testSession("s-2", "tok-2")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := signOuts.Load(); got != 2 {
		t.Errorf("expected two sign-outs across two sessions, got %d", got)
	}
}

func TestClient_ForbiddenKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var signOuts atomic.Int64
	c := New(srv.URL, zap.NewNop(), WithSignOut(func(ctx context.Context, sess *domain.Session) {
		signOuts.Add(1)
	}))

	_, err := c.Profile(context.Background(), testSession("s-1", "tok-1"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if signOuts.Load() != 0 {
		t.Error("403 must not sign the session out")
	}
}

func TestClient_HandleUnauthorizedSharesOnceSemantics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signOuts atomic.Int64
	c := New(srv.URL, zap.NewNop(), WithSignOut(func(ctx context.Context, sess *domain.Session) {
		signOuts.Add(1)
	}))

	sess := testSession("s-1", "tok-1")
	ctx := context.Background()

	c.HandleUnauthorized(ctx, sess)
	if _, err := c.Profile(ctx, sess); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	c.HandleUnauthorized(ctx, sess)

	if got := signOuts.Load(); got != 1 {
		t.Errorf("expected one sign-out across proxy and client paths, got %d", got)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/school/profile":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"bad input"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, zap.NewNop())
	sess := testSession("s-1", "tok-1")

	if _, err := c.Profile(context.Background(), sess); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err := c.Stats(context.Background(), sess)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", statusErr.Status)
	}
}
