package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pakainexus/schoolgate/internal/domain"
)

// TenantListParams mirrors the backend's paging/filter query parameters.
type TenantListParams struct {
	Page    int
	PerPage int
	Status  string
	Search  string
	SortBy  string
}

func (p TenantListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	return q
}

type TenantList struct {
	Tenants []domain.Tenant `json:"tenants"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// CreateTenantRequest carries the raw datastore credentials the backend
// encrypts on arrival; the gateway never stores them.
type CreateTenantRequest struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	SupabaseURLRaw string `json:"supabase_url_raw"`
	SupabaseKeyRaw string `json:"supabase_key_raw"`
}

type ExtendSubscriptionRequest struct {
	ExtensionDays    int     `json:"extension_days"`
	PaymentReference string  `json:"payment_reference"`
	Amount           float64 `json:"amount"`
	Notes            string  `json:"notes,omitempty"`
}

func (c *Client) ListTenants(ctx context.Context, sess *domain.Session, params TenantListParams) (*TenantList, error) {
	var list TenantList
	if err := c.getJSON(ctx, sess, "/api/v1/admin/tenants", params.query(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetTenant(ctx context.Context, sess *domain.Session, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := c.getJSON(ctx, sess, "/api/v1/admin/tenants/"+id, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTenant(ctx context.Context, sess *domain.Session, req CreateTenantRequest, autoCreateDB bool) (*domain.Tenant, error) {
	query := url.Values{}
	if autoCreateDB {
		query.Set("auto_create_db", "true")
	}
	var t domain.Tenant
	if err := c.sendJSON(ctx, sess, http.MethodPost, "/api/v1/admin/tenants", query, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTenant(ctx context.Context, sess *domain.Session, id string, fields map[string]string) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := c.sendJSON(ctx, sess, http.MethodPatch, "/api/v1/admin/tenants/"+id, nil, fields, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ExtendSubscription(ctx context.Context, sess *domain.Session, id string, req ExtendSubscriptionRequest) error {
	return c.sendJSON(ctx, sess, http.MethodPut, "/api/v1/admin/tenants/"+id+"/extend", nil, req, nil)
}

// ActivateTenant converts a trial to an active subscription.
func (c *Client) ActivateTenant(ctx context.Context, sess *domain.Session, id, paymentRef, notes string) error {
	query := url.Values{}
	query.Set("payment_ref", paymentRef)
	if notes != "" {
		query.Set("notes", notes)
	}
	return c.sendJSON(ctx, sess, http.MethodPut, "/api/v1/admin/tenants/"+id+"/activate", query, nil, nil)
}

// ChangeTenantStatus requests a lifecycle transition (suspend, lock, churn,
// reinstate). The backend owns the transition rules.
func (c *Client) ChangeTenantStatus(ctx context.Context, sess *domain.Session, id, action, reason string) error {
	query := url.Values{}
	query.Set("action", action)
	if reason != "" {
		query.Set("reason", reason)
	}
	return c.sendJSON(ctx, sess, http.MethodPut, "/api/v1/admin/tenants/"+id+"/status", query, nil, nil)
}

// SMTPSettings is the mail relay block of the system settings payload.
type SMTPSettings struct {
	Host   string `json:"host"`
	Port   string `json:"port"`
	Sender string `json:"sender"`
}

// SystemSettings is the platform's global configuration as displayed on the
// operator console. Read-only at the gateway; CORSOrigins is a
// comma-separated list.
type SystemSettings struct {
	AppName     string       `json:"app_name"`
	AppDomain   string       `json:"app_domain"`
	CORSOrigins string       `json:"cors_origins"`
	SMTP        SMTPSettings `json:"smtp"`
}

func (c *Client) GetSystemSettings(ctx context.Context, sess *domain.Session) (*SystemSettings, error) {
	var settings SystemSettings
	if err := c.getJSON(ctx, sess, "/api/v1/admin/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) AdminStats(ctx context.Context, sess *domain.Session) (map[string]any, error) {
	var stats map[string]any
	if err := c.getJSON(ctx, sess, "/api/v1/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) Revenue(ctx context.Context, sess *domain.Session, period string) (map[string]any, error) {
	query := url.Values{}
	if period != "" {
		query.Set("period", period)
	}
	var rev map[string]any
	if err := c.getJSON(ctx, sess, "/api/v1/admin/analytics/revenue", query, &rev); err != nil {
		return nil, err
	}
	return rev, nil
}

type bulkExtendRequest struct {
	TenantIDs     []string `json:"tenant_ids"`
	ExtensionDays int      `json:"extension_days"`
}

func (c *Client) BulkExtend(ctx context.Context, sess *domain.Session, tenantIDs []string, days int) error {
	return c.sendJSON(ctx, sess, http.MethodPost, "/api/v1/admin/bulk/extend", nil,
		bulkExtendRequest{TenantIDs: tenantIDs, ExtensionDays: days}, nil)
}
