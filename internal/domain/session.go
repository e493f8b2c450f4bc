package domain

import (
	"context"
	"time"
)

// Session is the server-side record behind the signed cookie. AccessToken,
// Role and TenantID are copied in once at mint time and never change for the
// session's lifetime; there is no refresh path, so a token that expires
// backend-side before the session does will 401 every call until the session
// is torn down.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	Role        string    `json:"role,omitempty"`
	TenantID    string    `json:"tenant_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionStore persists sessions server-side. Delete is idempotent:
// deleting a session that does not exist is not an error.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
