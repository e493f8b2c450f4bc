package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/api"
	"github.com/pakainexus/schoolgate/internal/config"
	"github.com/pakainexus/schoolgate/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	backend, err := api.OpenSessionBackend(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer backend.Close()

	sessions, err := session.NewManager(backend.Store, config.SessionSecret(), config.SessionTTL(), logger)
	if err != nil {
		logger.Fatal("failed to initialize session manager", zap.Error(err))
	}

	app, err := api.NewTenantApp(sessions, backend.Health, logger)
	if err != nil {
		logger.Fatal("failed to assemble tenant app", zap.Error(err))
	}

	if backend.Janitor != nil {
		backend.Janitor.Start()
	}

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("tenant gateway starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
