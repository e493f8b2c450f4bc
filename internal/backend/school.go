package backend

import (
	"context"
	"net/http"

	"github.com/pakainexus/schoolgate/internal/domain"
)

// SchoolProfile is the authenticated, tenant-scoped profile. It is a
// superset of the public branding payload.
type SchoolProfile struct {
	TenantID     string `json:"tenant_id"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty"`
	domain.Branding
}

// SchoolStats is the dashboard tile payload for a school.
type SchoolStats struct {
	Students       int `json:"students"`
	Teachers       int `json:"teachers"`
	StorageMB      int `json:"storage_mb"`
	StudentLimit   int `json:"student_limit"`
	TeacherLimit   int `json:"teacher_limit"`
	StorageLimitMB int `json:"storage_limit_mb"`
}

// Profile fetches the current school's profile using the session's token.
func (c *Client) Profile(ctx context.Context, sess *domain.Session) (*SchoolProfile, error) {
	var p SchoolProfile
	if err := c.getJSON(ctx, sess, "/api/v1/school/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Stats(ctx context.Context, sess *domain.Session) (*SchoolStats, error) {
	var s SchoolStats
	if err := c.getJSON(ctx, sess, "/api/v1/school/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateBranding patches the school's branding fields. The backend accepts a
// sparse map and ignores anything outside the allowed field set.
func (c *Client) UpdateBranding(ctx context.Context, sess *domain.Session, fields map[string]string) (*SchoolProfile, error) {
	var p SchoolProfile
	if err := c.sendJSON(ctx, sess, http.MethodPatch, "/api/v1/school/branding", nil, fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
