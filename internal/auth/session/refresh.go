package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/internal/auth/store"
	"github.com/aussiebroadwan/trialgate/pkg/clockx"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
)

// minArmDelay keeps the scheduler from spinning when a token is already
// at or past its refresh-due point.
const minArmDelay = time.Second

// persistedTokens is the storage wire shape. Only tokens are mirrored;
// user identity and counters are reconstructed via rehydration.
type persistedTokens struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresInSeconds int       `json:"expires_in_seconds"`
}

func (p persistedTokens) valid() bool {
	return p.AccessToken != "" && p.RefreshToken != "" && !p.IssuedAt.IsZero() && p.ExpiresInSeconds > 0
}

// Refresh exchanges the current refresh token for new tokens. The token
// field group is replaced atomically under the store lock, so no reader
// can observe a partial write. Refresh never retries: any failure
// destroys the session, purges persisted tokens and cancels the
// scheduler, and a new login is required.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Store) refreshLocked(ctx context.Context) error {
	if s.tokens == nil || s.tokens.RefreshToken == "" {
		return fmt.Errorf("%w: refresh without a refresh token", domain.ErrInvalidState)
	}

	// A manual refresh supersedes any scheduled one.
	s.timer.Cancel()

	resp, err := s.identity.RefreshGrant(ctx, s.tokens.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed, destroying session", "error", err)
		s.teardownLocked(ctx)
		s.notifyLocked()
		return fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
	}

	if err := s.establishLocked(ctx, resp); err != nil {
		// A token response we cannot decode is as fatal as a rejected
		// refresh: tear down rather than hold half a session.
		s.teardownLocked(ctx)
		s.notifyLocked()
		return err
	}
	s.notifyLocked()
	return nil
}

// Rehydrate reconstructs the session from persisted tokens at process
// start. Absent or malformed values are discarded and the session stays
// unauthenticated with no error; the embedded expiry of well-formed
// tokens is not trusted (elapsed wall-clock time since persistence is
// unknown), so an immediate refresh establishes the session instead.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.storage.Get(ctx, s.cfg.StorageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read persisted tokens: %w", err)
	}

	var persisted persistedTokens
	if err := json.Unmarshal(raw, &persisted); err != nil || !persisted.valid() {
		// Recover locally: discard the bad value, start unauthenticated.
		s.logger.Warn("discarding corrupt persisted tokens")
		if err := s.storage.Remove(ctx, s.cfg.StorageKey); err != nil {
			s.logger.Warn("failed to purge corrupt persisted tokens", "error", err)
		}
		return nil
	}

	s.tokens = &domain.TokenSet{
		AccessToken:  persisted.AccessToken,
		RefreshToken: persisted.RefreshToken,
		IssuedAt:     persisted.IssuedAt,
		ExpiresIn:    time.Duration(persisted.ExpiresInSeconds) * time.Second,
	}

	return s.refreshLocked(ctx)
}

// establishLocked installs a token response as the authenticated session:
// decodes the user profile from the access token claims, replaces the
// token field group, persists the mirror, stamps activity and re-arms the
// refresh scheduler.
func (s *Store) establishLocked(ctx context.Context, resp *identitysdk.TokenResponse) error {
	identity, err := identitysdk.IdentityFromToken(resp.AccessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	}

	now := s.now()
	s.tokens = &domain.TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IssuedAt:     now,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
	}
	s.user = &domain.User{
		ID:         identity.ID,
		Email:      identity.Email,
		Role:       domain.Role(identity.Role),
		MFAEnabled: identity.MFAEnabled,
	}
	s.state = domain.StateAuthenticated
	s.lastActivityAt = now

	s.persistLocked(ctx)
	s.armLocked(now)
	return nil
}

// persistLocked mirrors the current tokens to persisted storage. Storage
// faults are logged, not fatal: the in-memory session remains valid and
// the next successful refresh will try again.
func (s *Store) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(persistedTokens{
		AccessToken:      s.tokens.AccessToken,
		RefreshToken:     s.tokens.RefreshToken,
		IssuedAt:         s.tokens.IssuedAt,
		ExpiresInSeconds: int(s.tokens.ExpiresIn / time.Second),
	})
	if err != nil {
		s.logger.Warn("failed to encode tokens for persistence", "error", err)
		return
	}
	if err := s.storage.Set(ctx, s.cfg.StorageKey, payload); err != nil {
		s.logger.Warn("failed to persist tokens", "error", err)
	}
}

// armLocked schedules the next automatic refresh. Arming cancels any
// pending timer, so two logins in a row still leave exactly one timer.
func (s *Store) armLocked(now time.Time) {
	due := clockx.RefreshDueAt(s.tokens.IssuedAt, s.tokens.ExpiresIn)
	delay := due.Sub(now)
	if delay < minArmDelay {
		delay = minArmDelay
	}

	s.timer.Arm(delay, func() {
		ctx := context.Background()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("scheduled token refresh failed", "error", err)
		}
	})
}
