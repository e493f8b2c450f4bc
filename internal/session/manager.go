package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pakainexus/schoolgate/internal/domain"
	"github.com/pakainexus/schoolgate/internal/store"
	"go.uber.org/zap"
)

var ErrNoSession = errors.New("no active session")

// Manager mints sessions from exchanged credentials and rehydrates them from
// the signed cookie on every request. A session is immutable once minted:
// token, role and tenant are fixed until sign-out, expiry, or a global 401
// invalidation tears the session down.
type Manager struct {
	store   domain.SessionStore
	secret  []byte
	ttl     time.Duration
	nowTime func() time.Time
	logger  *zap.Logger
}

type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(sessions domain.SessionStore, secret string, ttl time.Duration, logger *zap.Logger, options ...Option) (*Manager, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	m := &Manager{
		store:   sessions,
		secret:  []byte(secret),
		ttl:     ttl,
		nowTime: time.Now,
		logger:  logger,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Mint creates a session for an exchanged identity and returns it together
// with the cookie to set. This is the only place token/role/tenant enter the
// session; nothing updates them afterwards.
func (m *Manager) Mint(ctx context.Context, id *domain.Identity) (*domain.Session, *http.Cookie, error) {
	now := m.nowTime()
	sess := &domain.Session{
		ID:          uuid.NewString(),
		UserID:      id.ID,
		Email:       id.Email,
		AccessToken: id.AccessToken,
		Role:        id.Role,
		TenantID:    id.TenantID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	value, err := signCookie(sess.ID, sess.ExpiresAt, m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return nil, nil, fmt.Errorf("sign session cookie: %w", err)
	}
	return sess, newCookie(value, sess.ExpiresAt), nil
}

// Resolve rehydrates the session referenced by the request's cookie.
// Missing cookie, bad signature, unknown ID and expiry all collapse to
// ErrNoSession: the guard treats them identically.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	id, err := parseCookie(cookie.Value, m.secret)
	if err != nil {
		m.logger.Debug("rejecting session cookie", zap.Error(err))
		return nil, ErrNoSession
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(m.nowTime()) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNoSession
	}
	return sess, nil
}

// Destroy removes a session. Idempotent: destroying an absent session is
// not an error, so concurrent sign-outs and 401 invalidations are safe.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
