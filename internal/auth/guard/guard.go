// Package guard implements the navigation guard pipeline: an ordered,
// short-circuiting chain of decision functions evaluated for every
// navigation attempt. Guards read a consistent session snapshot, never
// individual fields, so an in-flight token refresh can not be observed
// half-applied.
package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/pkg/auditx"
	"github.com/aussiebroadwan/trialgate/pkg/slogx"
)

// Navigation is a single navigation attempt presented to the pipeline.
type Navigation struct {
	Target   domain.Route
	Source   domain.Route
	ClientIP string
}

// Guard decides one aspect of a navigation attempt.
type Guard func(ctx context.Context, nav Navigation) domain.Decision

// Session is the slice of the session store the guards consume.
type Session interface {
	Snapshot() domain.Snapshot
	Touch()
	MarkMFAVerified()
	Logout(ctx context.Context) error
}

// GeoLookup resolves a client IP to an ISO country code.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (string, error)
}

// Config tunes the pipeline's time thresholds.
type Config struct {
	// SessionTimeout is the maximum idle time before an authenticated
	// session is destroyed on the next navigation.
	SessionTimeout time.Duration

	// MFAStepUpTimeout bounds how long a step-up verification stays
	// fresh for routes that require one.
	MFAStepUpTimeout time.Duration
}

// DefaultConfig returns the platform thresholds.
func DefaultConfig() Config {
	return Config{
		SessionTimeout:   24 * time.Hour,
		MFAStepUpTimeout: 30 * time.Minute,
	}
}

// Pipeline evaluates the fixed guard chain: geographic restriction,
// authentication, role membership, MFA step-up.
type Pipeline struct {
	session Session
	geo     GeoLookup
	audit   auditx.Sink
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	guards   []Guard
	geoCache *geoCache
}

// Option customises a Pipeline, mainly for tests.
type Option func(*Pipeline)

// WithClock substitutes the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds the pipeline. The guard order is fixed; a later stage never
// runs once an earlier stage redirects.
func New(session Session, geo GeoLookup, audit auditx.Sink, cfg Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultConfig().SessionTimeout
	}
	if cfg.MFAStepUpTimeout <= 0 {
		cfg.MFAStepUpTimeout = DefaultConfig().MFAStepUpTimeout
	}
	if audit == nil {
		audit = auditx.NoopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		session:  session,
		geo:      geo,
		audit:    audit,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		geoCache: newGeoCache(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.guards = []Guard{
		p.geoGuard,
		p.authnGuard,
		p.roleGuard,
		p.mfaGuard,
	}
	return p
}

// Evaluate runs the guard chain for one navigation attempt and returns
// the first redirect, or an allow once every stage passes. Redirects are
// logged with the request-scoped logger when the router placed one in
// the context.
func (p *Pipeline) Evaluate(ctx context.Context, nav Navigation) domain.Decision {
	for _, g := range p.guards {
		decision := g(ctx, nav)
		if !decision.Allowed {
			slogx.FromContext(ctx).Info("navigation redirected",
				"route", nav.Target.Name,
				"to", decision.To,
				"reason", decision.Reason,
			)
			return decision
		}
	}
	return domain.Allow()
}
