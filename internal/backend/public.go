package backend

import (
	"context"
	"net/url"

	"github.com/pakainexus/schoolgate/internal/domain"
)

// BrandingByDomain performs the unauthenticated branding lookup for a
// hostname. Returns ErrNotFound when the host has no custom profile; the
// resolver treats that as "use defaults", not as a failure.
func (c *Client) BrandingByDomain(ctx context.Context, host string) (*domain.Branding, error) {
	query := url.Values{}
	query.Set("domain", host)

	var b domain.Branding
	if err := c.getJSON(ctx, nil, "/api/v1/public/branding", query, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
