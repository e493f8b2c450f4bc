package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultJanitorInterval = 15 * time.Minute

// ExpiredDeleter is implemented by session stores that cannot expire
// entries on their own. Redis is absent on purpose: its TTLs do the job.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionJanitor periodically removes expired sessions so stale rows do not
// accumulate between logins.
type SessionJanitor struct {
	store  ExpiredDeleter
	logger *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSessionJanitor(store ExpiredDeleter, logger *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		store:    store,
		logger:   logger,
		interval: defaultJanitorInterval,
		stopCh:   make(chan struct{}),
	}
}

func (j *SessionJanitor) SetInterval(d time.Duration) {
	j.interval = d
}

// Start runs the sweep on a periodic schedule in a background goroutine.
func (j *SessionJanitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("session janitor started", zap.Duration("interval", j.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				j.run(ctx)
				cancel()
			case <-j.stopCh:
				j.logger.Info("session janitor stopped")
				return
			}
		}
	}()
}

func (j *SessionJanitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}

func (j *SessionJanitor) run(ctx context.Context) {
	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("expired sessions removed", zap.Int64("count", deleted))
	}
}
