package api

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/config"
	"github.com/pakainexus/schoolgate/internal/domain"
	"github.com/pakainexus/schoolgate/internal/store"
)

// SessionBackend bundles a session store with its lifecycle pieces so the
// two gateway binaries share one bootstrap path.
type SessionBackend struct {
	Store   domain.SessionStore
	Health  HealthCheck
	Janitor *store.SessionJanitor
	close   func()
}

func (b *SessionBackend) Close() {
	if b.Janitor != nil {
		b.Janitor.Stop()
	}
	if b.close != nil {
		b.close()
	}
}

// OpenSessionBackend selects the session store from configuration: postgres
// and redis for multi-instance deployments, in-process memory otherwise.
func OpenSessionBackend(ctx context.Context, logger *zap.Logger) (*SessionBackend, error) {
	switch kind := config.SessionStoreKind(); kind {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres session store")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("connected to database")

		sessions := store.NewSessionStore(pool)
		return &SessionBackend{
			Store:   sessions,
			Health:  pool.Ping,
			Janitor: store.NewSessionJanitor(sessions, logger),
			close:   pool.Close,
		}, nil

	case "redis":
		redisURL := config.RedisURL()
		if redisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis session store")
		}
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("connected to redis")

		return &SessionBackend{
			Store: store.NewRedisSessionStore(client),
			Health: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			close: func() { _ = client.Close() },
		}, nil

	case "memory":
		sessions := store.NewMemorySessionStore()
		return &SessionBackend{
			Store:   sessions,
			Janitor: store.NewSessionJanitor(sessions, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unknown session store kind %q", kind)
	}
}
