package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/domain"
)

func adminBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/tenants", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(backend.TenantList{
			Tenants: []domain.Tenant{{ID: "t-1", Name: "Greenfield", Subdomain: "greenfield", Status: domain.StatusActive}},
			Total:   1, Page: 1, PerPage: 20,
		})
	})
	mux.HandleFunc("POST /api/v1/admin/tenants", func(w http.ResponseWriter, r *http.Request) {
		var req backend.CreateTenantRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Tenant{ID: "t-2", Name: req.Name, Subdomain: req.Subdomain, Status: domain.StatusTrial})
	})
	mux.HandleFunc("GET /api/v1/admin/tenants/t-404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/v1/admin/modules", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]backend.Module{
			{ID: "m-1", Code: "attendance", Name: "Attendance", BasePrice: "500", IsActive: true},
			{ID: "m-2", Code: "fees", Name: "Fee Management", BasePrice: "1200", IsActive: true},
		})
	})
	mux.HandleFunc("GET /api/v1/admin/tenants/t-1/modules", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]backend.TenantModule{
			{ID: "tm-1", TenantID: "t-1", Module: backend.Module{ID: "m-1", Code: "attendance"}, Status: "enabled"},
		})
	})
	mux.HandleFunc("POST /api/v1/admin/tenants/t-1/modules", func(w http.ResponseWriter, r *http.Request) {
		var req backend.ToggleModuleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ModuleID == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /api/v1/admin/settings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(backend.SystemSettings{
			AppName:   "PakAi Nexus",
			AppDomain: "paknexus.com",
			SMTP:      backend.SMTPSettings{Host: "smtp.example", Port: "587", Sender: "noreply@paknexus.com"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func adminRequest(method, path, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	sess := &domain.Session{ID: "s-admin", UserID: "u-admin", AccessToken: "admin-tok", Role: "super_admin"}
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

func TestTenantHandler_List(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(http.MethodGet, "/api/admin/tenants?status=active&page=1", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	var list backend.TenantList
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Tenants, 1)
	assert.Equal(t, "greenfield", list.Tenants[0].Subdomain)
}

func TestTenantHandler_ListRejectsBadStatus(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(http.MethodGet, "/api/admin/tenants?status=cancelled", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantHandler_Create(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(http.MethodPost, "/api/admin/tenants",
		`{"name":"Lakeside","subdomain":"lakeside","contact_email":"head@lakeside.example","supabase_url_raw":"https://db.example","supabase_key_raw":"key"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var tenant struct {
		domain.Tenant
		URL string `json:"url"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenant))
	assert.Equal(t, "lakeside", tenant.Subdomain)
	assert.Equal(t, "https://lakeside.paknexus.com", tenant.URL)
}

func TestTenantHandler_CreateRejectsBadSubdomain(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	for _, sub := range []string{"", "ab", "Lakeside", "lake_side"} {
		rec := httptest.NewRecorder()
		h.Create(rec, adminRequest(http.MethodPost, "/api/admin/tenants",
			`{"name":"Lakeside","subdomain":"`+sub+`","contact_email":"head@lakeside.example"}`))
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "subdomain %q", sub)
	}
}

func TestTenantHandler_CreateAutoCreateDBOptIn(t *testing.T) {
	var gotQueries []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/tenants", func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.RawQuery)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Tenant{ID: "t-3", Subdomain: "lakeside", Status: domain.StatusTrial})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())
	body := `{"name":"Lakeside","subdomain":"lakeside","contact_email":"head@lakeside.example"}`

	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(http.MethodPost, "/api/admin/tenants", body))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Create(rec, adminRequest(http.MethodPost, "/api/admin/tenants?auto_create_db=true", body))
	assert.Equal(t, http.StatusCreated, rec.Code)

	if assert.Len(t, gotQueries, 2) {
		assert.Empty(t, gotQueries[0], "datastore provisioning must be opt-in")
		assert.Equal(t, "auto_create_db=true", gotQueries[1])
	}
}

func TestTenantHandler_Modules(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.Modules(rec, adminRequest(http.MethodGet, "/api/admin/modules", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	var modules []backend.Module
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	assert.Len(t, modules, 2)
	assert.Equal(t, "attendance", modules[0].Code)
}

func TestTenantHandler_TenantModules(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.TenantModules(rec, withTenantID(adminRequest(http.MethodGet, "/api/admin/tenants/t-1/modules", ""), "t-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var modules []backend.TenantModule
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	assert.Len(t, modules, 1)
	assert.Equal(t, "enabled", modules[0].Status)
}

func TestTenantHandler_ToggleModule(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.ToggleModule(rec, withTenantID(adminRequest(http.MethodPost, "/api/admin/tenants/t-1/modules",
		`{"module_id":"m-1","is_enabled":true}`), "t-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantHandler_ToggleModuleRequiresModuleID(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.ToggleModule(rec, withTenantID(adminRequest(http.MethodPost, "/api/admin/tenants/t-1/modules",
		`{"is_enabled":true}`), "t-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantHandler_Settings(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rec := httptest.NewRecorder()
	h.Settings(rec, adminRequest(http.MethodGet, "/api/admin/settings", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	var settings backend.SystemSettings
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "PakAi Nexus", settings.AppName)
	assert.Equal(t, "587", settings.SMTP.Port)
}

func withTenantID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestTenantHandler_GetNotFound(t *testing.T) {
	srv := adminBackend(t)
	h := NewTenantHandler(backend.New(srv.URL, zap.NewNop()), "paknexus.com", zap.NewNop())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "t-404")
	r := adminRequest(http.MethodGet, "/api/admin/tenants/t-404", "")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Get(rec, r)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
