package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/pakainexus/schoolgate/internal/domain"
)

// Module is a platform feature that can be sold per tenant.
type Module struct {
	ID          string    `json:"module_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BasePrice   string    `json:"base_price"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TenantModule is a module's enablement state for one tenant. PriceOverride
// arrives as a string because the backend serializes decimals that way.
type TenantModule struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Module        Module    `json:"module"`
	Status        string    `json:"status"`
	PriceOverride string    `json:"price_override,omitempty"`
	EnabledAt     time.Time `json:"enabled_at"`
}

type ToggleModuleRequest struct {
	ModuleID      string   `json:"module_id"`
	IsEnabled     bool     `json:"is_enabled"`
	PriceOverride *float64 `json:"price_override,omitempty"`
}

// ListModules returns the platform's module catalog.
func (c *Client) ListModules(ctx context.Context, sess *domain.Session) ([]Module, error) {
	var modules []Module
	if err := c.getJSON(ctx, sess, "/api/v1/admin/modules", nil, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// TenantModules returns one tenant's module enablement states.
func (c *Client) TenantModules(ctx context.Context, sess *domain.Session, tenantID string) ([]TenantModule, error) {
	var modules []TenantModule
	if err := c.getJSON(ctx, sess, "/api/v1/admin/tenants/"+tenantID+"/modules", nil, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// ToggleTenantModule enables or disables a module for a tenant, optionally
// with a tenant-specific price.
func (c *Client) ToggleTenantModule(ctx context.Context, sess *domain.Session, tenantID string, req ToggleModuleRequest) error {
	return c.sendJSON(ctx, sess, http.MethodPost, "/api/v1/admin/tenants/"+tenantID+"/modules", nil, req, nil)
}
