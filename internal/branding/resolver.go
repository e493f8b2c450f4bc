package branding

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/domain"
	"go.uber.org/zap"
)

// Stage distinguishes a profile that may still be upgraded from a final one.
type Stage string

const (
	// StageProvisional: only the public by-domain lookup has run; an
	// authenticated upgrade could still change the result.
	StageProvisional Stage = "provisional"

	// StageResolved: the authenticated upgrade ran (successfully or not);
	// the result will not change for this request.
	StageResolved Stage = "resolved"
)

// Result is a resolved branding profile plus how final it is.
type Result struct {
	Branding *domain.Branding `json:"branding"`
	Stage    Stage            `json:"stage"`
}

// Source is the slice of the backend client the resolver needs.
type Source interface {
	BrandingByDomain(ctx context.Context, host string) (*domain.Branding, error)
	Profile(ctx context.Context, sess *domain.Session) (*backend.SchoolProfile, error)
}

type cacheEntry struct {
	branding *domain.Branding
	fetched  time.Time
}

// Resolver produces a best-effort branding profile for a hostname and
// upgrades it with authenticated data when a session is available. A host
// with no custom profile is normal, not an error: the defaults apply.
type Resolver struct {
	source   Source
	logger   *zap.Logger
	cacheTTL time.Duration
	nowTime  func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type Option func(*Resolver)

// WithCacheTTL overrides how long a public lookup is reused per host.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cacheTTL = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *Resolver) {
		r.nowTime = nowFunc
	}
}

func NewResolver(source Source, logger *zap.Logger, options ...Option) *Resolver {
	r := &Resolver{
		source:   source,
		logger:   logger,
		cacheTTL: time.Minute,
		nowTime:  time.Now,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Resolve runs the two lookup stages in order. Stage 1 always runs (served
// from a short-lived per-host cache); stage 2 runs only when sess is
// non-nil. Authenticated fields win on conflict; an upgrade failure silently
// retains the public result.
func (r *Resolver) Resolve(ctx context.Context, host string, sess *domain.Session) Result {
	public := r.public(ctx, host)

	if sess == nil {
		return Result{Branding: public, Stage: StageProvisional}
	}

	profile, err := r.source.Profile(ctx, sess)
	if err != nil {
		r.logger.Debug("authenticated branding upgrade unavailable",
			zap.String("host", host), zap.Error(err))
		return Result{Branding: public, Stage: StageResolved}
	}
	return Result{Branding: public.Merge(&profile.Branding), Stage: StageResolved}
}

func (r *Resolver) public(ctx context.Context, host string) *domain.Branding {
	now := r.nowTime()

	r.mu.Lock()
	entry, ok := r.cache[host]
	r.mu.Unlock()
	if ok && now.Sub(entry.fetched) < r.cacheTTL {
		return entry.branding
	}

	b, err := r.source.BrandingByDomain(ctx, host)
	if err != nil {
		if noCustomBranding(err) {
			r.logger.Debug("no custom branding for host", zap.String("host", host))
		} else {
			r.logger.Error("branding lookup failed", zap.String("host", host), zap.Error(err))
		}
		b = domain.DefaultBranding()
	}

	r.mu.Lock()
	r.cache[host] = cacheEntry{branding: b, fetched: now}
	r.mu.Unlock()
	return b
}

// noCustomBranding reports whether the lookup failure just means the host
// has no profile (404 or a malformed-domain 400), as opposed to a real
// backend problem.
func noCustomBranding(err error) bool {
	if errors.Is(err, backend.ErrNotFound) {
		return true
	}
	var se *backend.StatusError
	return errors.As(err, &se) && se.Status == http.StatusBadRequest
}
