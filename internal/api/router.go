package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/api/handlers"
	mw "github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/auth"
	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/branding"
	"github.com/pakainexus/schoolgate/internal/buildconfig"
	"github.com/pakainexus/schoolgate/internal/config"
	"github.com/pakainexus/schoolgate/internal/domain"
	"github.com/pakainexus/schoolgate/internal/session"
)

// App holds the router plus the shared clients the binary needs for
// lifecycle management.
type App struct {
	Router   *chi.Mux
	Backend  *backend.Client
	Sessions *session.Manager

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// HealthCheck pings whatever backs the session store so /health reflects
// real readiness.
type HealthCheck func(ctx context.Context) error

// NewAdminApp assembles the operator-console gateway: credential exchange,
// session cookie, route guard with the login redirect, and the tenant
// management API for super admins.
func NewAdminApp(sessions *session.Manager, health HealthCheck, logger *zap.Logger) *App {
	app := newApp(sessions, logger)

	adapter := auth.NewAdapter(config.APIBaseURL(), logger, auth.WithMinPasswordLength(6))
	loginLim := mw.NewKeyedLimiter(float64(config.LoginRateLimitPerMinute())/60, config.LoginRateLimitPerMinute())

	authHandler := handlers.NewAuthHandler(adapter, sessions, app.Backend, loginLim, logger)
	tenantHandler := handlers.NewTenantHandler(app.Backend, config.AppDomain(), logger)
	pages := handlers.NewPageHandler("PakAi Nexus Admin", false)

	r := app.Router
	app.useBase(logger)
	r.Use(mw.Guard(mw.AdminGuardPolicy()))

	r.Get("/health", healthHandler(health))
	r.Get("/metrics", app.metricsHandler())

	r.Get("/login", pages.Login)
	r.Get("/dashboard", pages.Dashboard)
	r.Get("/dashboard/*", pages.Dashboard)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole("super_admin"))

			r.Get("/stats", tenantHandler.Stats)
			r.Get("/revenue", tenantHandler.Revenue)
			r.Get("/modules", tenantHandler.Modules)
			r.Get("/settings", tenantHandler.Settings)

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", tenantHandler.List)
				r.Post("/", tenantHandler.Create)
				r.Post("/bulk-extend", tenantHandler.BulkExtend)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", tenantHandler.Get)
					r.Patch("/", tenantHandler.Update)
					r.Post("/extend", tenantHandler.Extend)
					r.Post("/activate", tenantHandler.Activate)
					r.Post("/status", tenantHandler.ChangeStatus)
					r.Get("/modules", tenantHandler.TenantModules)
					r.Post("/modules", tenantHandler.ToggleModule)
				})
			})
		})
	})

	return app
}

// NewTenantApp assembles the school-portal gateway: same auth surface, the
// two-stage branding resolver, the school profile API and the dashboard
// reverse proxy. Its guard never redirects authenticated requests away from
// /login.
func NewTenantApp(sessions *session.Manager, health HealthCheck, logger *zap.Logger) (*App, error) {
	app := newApp(sessions, logger)

	adapter := auth.NewAdapter(config.APIBaseURL(), logger)
	loginLim := mw.NewKeyedLimiter(float64(config.LoginRateLimitPerMinute())/60, config.LoginRateLimitPerMinute())
	resolver := branding.NewResolver(app.Backend, logger)

	authHandler := handlers.NewAuthHandler(adapter, sessions, app.Backend, loginLim, logger)
	brandingHandler := handlers.NewBrandingHandler(resolver)
	schoolHandler := handlers.NewSchoolHandler(app.Backend, config.CloudinaryCloudName(), config.CloudinaryUploadPreset(), logger)
	proxyHandler, err := handlers.NewProxyHandler(app.Backend, config.APIBaseURL(), "/dashboard/api", logger)
	if err != nil {
		return nil, err
	}
	pages := handlers.NewPageHandler("PakAi Nexus", true)

	r := app.Router
	app.useBase(logger)
	r.Use(mw.Guard(mw.TenantGuardPolicy()))

	r.Get("/health", healthHandler(health))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/theme.css", brandingHandler.ThemeCSS)

	r.Get("/login", pages.Login)
	r.Get("/dashboard", pages.Dashboard)
	r.Handle("/dashboard/api/*", proxyHandler)
	r.Get("/dashboard/*", pages.Dashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/branding", brandingHandler.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.Route("/school", func(r chi.Router) {
			r.Use(mw.RequireSession)

			r.Get("/profile", schoolHandler.Profile)
			r.Get("/stats", schoolHandler.Stats)
			r.Patch("/branding", schoolHandler.UpdateBranding)
			r.Get("/upload-config", schoolHandler.UploadConfig)
		})
	})

	return app, nil
}

func newApp(sessions *session.Manager, logger *zap.Logger) *App {
	app := &App{
		Router:    chi.NewRouter(),
		Sessions:  sessions,
		startTime: time.Now(),
	}
	app.Backend = backend.New(config.APIBaseURL(), logger,
		backend.WithSignOut(func(ctx context.Context, sess *domain.Session) {
			if err := sessions.Destroy(ctx, sess.ID); err != nil {
				logger.Error("failed to destroy invalidated session", zap.Error(err), zap.String("session_id", sess.ID))
			}
		}))
	return app
}

// useBase installs the shared middleware chain. LoadSession runs before
// Logging so access logs carry user and tenant IDs.
func (app *App) useBase(logger *zap.Logger) {
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	r := app.Router
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.LoadSession(app.Sessions, logger))
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))
}

func healthHandler(health HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if health != nil {
			if err := health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
