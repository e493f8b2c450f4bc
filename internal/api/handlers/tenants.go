package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/domain"
)

// TenantHandler exposes the platform-admin tenant operations. Every call is
// proxied to the backend with the admin's bearer token.
type TenantHandler struct {
	backend   *backend.Client
	appDomain string
	logger    *zap.Logger
}

func NewTenantHandler(backendClient *backend.Client, appDomain string, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{backend: backendClient, appDomain: appDomain, logger: logger}
}

type tenantResponse struct {
	*domain.Tenant
	URL string `json:"url,omitempty"`
}

// withURL attaches the tenant's portal URL when an app domain is configured.
func (h *TenantHandler) withURL(t *domain.Tenant) tenantResponse {
	resp := tenantResponse{Tenant: t}
	if h.appDomain != "" && t.Subdomain != "" {
		resp.URL = domain.TenantURL(t.Subdomain, h.appDomain)
	}
	return resp
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := backend.TenantListParams{
		Status: q.Get("status"),
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	if params.Status != "" {
		if _, err := domain.ParseSubscriptionStatus(params.Status); err != nil {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	list, err := h.backend.ListTenants(r.Context(), sessionOf(r), params)
	if err != nil {
		h.backendError(w, err, "failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.backend.GetTenant(r.Context(), sessionOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, err, "failed to fetch tenant")
		return
	}
	writeJSON(w, http.StatusOK, h.withURL(tenant))
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))

	if req.Name == "" || req.ContactEmail == "" {
		writeError(w, http.StatusBadRequest, "name and contact_email are required")
		return
	}
	if !domain.ValidSubdomain(req.Subdomain) {
		writeError(w, http.StatusBadRequest, "subdomain must be 3-63 lowercase letters, digits or hyphens")
		return
	}

	// Provisioning a datastore is explicit opt-in.
	autoCreateDB := r.URL.Query().Get("auto_create_db") == "true"
	tenant, err := h.backend.CreateTenant(r.Context(), sessionOf(r), req, autoCreateDB)
	if err != nil {
		h.backendError(w, err, "failed to create tenant")
		return
	}
	writeJSON(w, http.StatusCreated, h.withURL(tenant))
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	tenant, err := h.backend.UpdateTenant(r.Context(), sessionOf(r), chi.URLParam(r, "id"), fields)
	if err != nil {
		h.backendError(w, err, "failed to update tenant")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) Extend(w http.ResponseWriter, r *http.Request) {
	var req backend.ExtendSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExtensionDays <= 0 {
		writeError(w, http.StatusBadRequest, "extension_days must be positive")
		return
	}

	if err := h.backend.ExtendSubscription(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req); err != nil {
		h.backendError(w, err, "failed to extend subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscription extended"})
}

type activateTenantRequest struct {
	PaymentReference string `json:"payment_reference"`
	Notes            string `json:"notes,omitempty"`
}

func (h *TenantHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaymentReference == "" {
		writeError(w, http.StatusBadRequest, "payment_reference is required")
		return
	}

	if err := h.backend.ActivateTenant(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req.PaymentReference, req.Notes); err != nil {
		h.backendError(w, err, "failed to activate tenant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant activated"})
}

type changeStatusRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

func (h *TenantHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Action {
	case "suspend", "unsuspend", "lock", "unlock", "churn", "reinstate":
	default:
		writeError(w, http.StatusBadRequest, "unknown status action")
		return
	}

	if err := h.backend.ChangeTenantStatus(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req.Action, req.Reason); err != nil {
		h.backendError(w, err, "failed to change tenant status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant status updated"})
}

func (h *TenantHandler) Modules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.backend.ListModules(r.Context(), sessionOf(r))
	if err != nil {
		h.backendError(w, err, "failed to list modules")
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

func (h *TenantHandler) TenantModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.backend.TenantModules(r.Context(), sessionOf(r), chi.URLParam(r, "id"))
	if err != nil {
		h.backendError(w, err, "failed to list tenant modules")
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

func (h *TenantHandler) ToggleModule(w http.ResponseWriter, r *http.Request) {
	var req backend.ToggleModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModuleID == "" {
		writeError(w, http.StatusBadRequest, "module_id is required")
		return
	}
	if req.PriceOverride != nil && *req.PriceOverride < 0 {
		writeError(w, http.StatusBadRequest, "price_override must not be negative")
		return
	}

	if err := h.backend.ToggleTenantModule(r.Context(), sessionOf(r), chi.URLParam(r, "id"), req); err != nil {
		h.backendError(w, err, "failed to update tenant module")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "tenant module updated"})
}

func (h *TenantHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.backend.GetSystemSettings(r.Context(), sessionOf(r))
	if err != nil {
		h.backendError(w, err, "failed to fetch system settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *TenantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backend.AdminStats(r.Context(), sessionOf(r))
	if err != nil {
		h.backendError(w, err, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *TenantHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "monthly"
	}
	revenue, err := h.backend.Revenue(r.Context(), sessionOf(r), period)
	if err != nil {
		h.backendError(w, err, "failed to fetch revenue")
		return
	}
	writeJSON(w, http.StatusOK, revenue)
}

type bulkExtendRequest struct {
	TenantIDs []string `json:"tenant_ids"`
	Days      int      `json:"days"`
}

func (h *TenantHandler) BulkExtend(w http.ResponseWriter, r *http.Request) {
	var req bulkExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TenantIDs) == 0 || req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "tenant_ids and a positive days value are required")
		return
	}

	if err := h.backend.BulkExtend(r.Context(), sessionOf(r), req.TenantIDs, req.Days); err != nil {
		h.backendError(w, err, "failed to extend subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscriptions extended"})
}

func (h *TenantHandler) backendError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, backend.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "tenant not found")
	default:
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Status >= 400 && statusErr.Status < 500 {
			writeError(w, statusErr.Status, strings.TrimSpace(statusErr.Body))
			return
		}
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusBadGateway, fallback)
	}
}
