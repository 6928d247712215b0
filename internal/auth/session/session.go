package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/internal/auth/store"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
)

// IdentityClient is the slice of the identity service the session store
// consumes. *identitysdk.Client satisfies it; tests substitute fakes.
type IdentityClient interface {
	PasswordGrant(ctx context.Context, email, password string) (*identitysdk.TokenResponse, error)
	MFAOTPGrant(ctx context.Context, mfaToken, code string) (*identitysdk.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*identitysdk.TokenResponse, error)
	RevokeToken(ctx context.Context, refreshToken string) error
}

// Config tunes the session store's counters and windows.
type Config struct {
	// StorageKey is the persisted-storage key holding serialized tokens.
	StorageKey string

	// MaxLoginAttempts is the number of credential rejections tolerated
	// within LoginLockoutWindow before further logins are refused
	// without a network call.
	MaxLoginAttempts   int
	LoginLockoutWindow time.Duration

	// MaxMFAAttempts bounds failed one-time-code submissions within
	// MFAAttemptWindow. Independent of the login counter.
	MaxMFAAttempts   int
	MFAAttemptWindow time.Duration
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() Config {
	return Config{
		StorageKey:         "trialgate.tokens",
		MaxLoginAttempts:   3,
		LoginLockoutWindow: 15 * time.Minute,
		MaxMFAAttempts:     5,
		MFAAttemptWindow:   5 * time.Minute,
	}
}

// Store is the authentication state machine. It owns the current state,
// user, tokens and rate-limit counters, and is the only writer of the
// persisted token mirror.
type Store struct {
	identity IdentityClient
	storage  store.Store
	cfg      Config
	logger   *slog.Logger
	timer    Timer
	now      func() time.Time

	mu                sync.Mutex
	state             domain.AuthState
	user              *domain.User
	tokens            *domain.TokenSet
	mfaChallenge      string
	loginAttempts     int
	loginWindowStart  time.Time
	mfaAttempts       int
	mfaWindowStart    time.Time
	lastActivityAt    time.Time
	lastMFAVerifiedAt time.Time
	subscribers       []func(domain.Snapshot)
}

// Option customises a Store, mainly for tests.
type Option func(*Store)

// WithClock substitutes the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTimer substitutes the refresh scheduler's timer.
func WithTimer(timer Timer) Option {
	return func(s *Store) { s.timer = timer }
}

// New creates a session store in StateUnauthenticated. Call Rehydrate at
// process start to recover a persisted session.
func New(identity IdentityClient, storage store.Store, cfg Config, logger *slog.Logger, opts ...Option) *Store {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultConfig().StorageKey
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = DefaultConfig().MaxLoginAttempts
	}
	if cfg.LoginLockoutWindow <= 0 {
		cfg.LoginLockoutWindow = DefaultConfig().LoginLockoutWindow
	}
	if cfg.MaxMFAAttempts <= 0 {
		cfg.MaxMFAAttempts = DefaultConfig().MaxMFAAttempts
	}
	if cfg.MFAAttemptWindow <= 0 {
		cfg.MFAAttemptWindow = DefaultConfig().MFAAttemptWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		identity: identity,
		storage:  storage,
		cfg:      cfg,
		logger:   logger,
		timer:    NewTimer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthState returns the current lifecycle state.
func (s *Store) AuthState() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *Store) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.user)
}

// HasRole reports whether the session is authenticated as a user with
// exactly the given role. No hierarchy semantics.
func (s *Store) HasRole(role domain.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StateAuthenticated && s.user != nil && s.user.Role == role
}

// Snapshot returns a consistent copy of the whole session, taken under
// the store lock so overlapping refreshes can never expose a half-written
// token set.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		State:             s.state,
		User:              copyUser(s.user),
		Tokens:            copyTokens(s.tokens),
		LoginAttempts:     s.loginAttempts,
		LastActivityAt:    s.lastActivityAt,
		LastMFAVerifiedAt: s.lastMFAVerifiedAt,
	}
}

// Touch records now as the last navigation activity. Called by the
// authentication guard on every non-public navigation.
func (s *Store) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivityAt = s.now()
}

// LastActivityAt returns the last recorded navigation activity.
func (s *Store) LastActivityAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

// MarkMFAVerified refreshes the step-up verification stamp.
func (s *Store) MarkMFAVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMFAVerifiedAt = s.now()
}

// LastMFAVerifiedAt returns the time of the last MFA verification.
func (s *Store) LastMFAVerifiedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMFAVerifiedAt
}

// Subscribe registers a callback invoked with the post-transition
// snapshot after every state change. Callbacks run synchronously under
// the store lock and must not call back into the store.
func (s *Store) Subscribe(fn func(domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

// Logout best-effort revokes the refresh token at the identity service
// and unconditionally clears local state, purges persisted tokens and
// cancels the refresh scheduler. It never leaves stale local credentials,
// even when the revoke call fails.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens != nil && s.tokens.RefreshToken != "" {
		if err := s.identity.RevokeToken(ctx, s.tokens.RefreshToken); err != nil {
			s.logger.Warn("logout: token revocation failed, clearing local session anyway", "error", err)
		}
	}

	s.teardownLocked(ctx)
	s.notifyLocked()
	return nil
}

// teardownLocked destroys the session: cancels the scheduler, purges
// persisted tokens and resets to StateUnauthenticated. Attempt counters
// survive so a teardown cannot be used to reset the login limiter.
func (s *Store) teardownLocked(ctx context.Context) {
	s.timer.Cancel()

	if err := s.storage.Remove(ctx, s.cfg.StorageKey); err != nil {
		s.logger.Warn("failed to purge persisted tokens", "error", err)
	}

	s.state = domain.StateUnauthenticated
	s.user = nil
	s.tokens = nil
	s.mfaChallenge = ""
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

func copyTokens(t *domain.TokenSet) *domain.TokenSet {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
