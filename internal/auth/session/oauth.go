package session

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
)

// BeginOAuth marks the session as waiting on an external OAuth provider.
// The router's OAuth-callback handler completes or cancels the flow.
func (s *Store) BeginOAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateUnauthenticated {
		return fmt.Errorf("%w: begin_oauth from %s", domain.ErrInvalidState, s.state)
	}

	s.state = domain.StateOAuthPending
	s.notifyLocked()
	return nil
}

// CompleteOAuth installs the tokens obtained by the OAuth-callback
// handler, transitioning to StateAuthenticated.
func (s *Store) CompleteOAuth(ctx context.Context, resp *identitysdk.TokenResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateOAuthPending {
		return fmt.Errorf("%w: complete_oauth from %s", domain.ErrInvalidState, s.state)
	}

	if err := s.establishLocked(ctx, resp); err != nil {
		return err
	}
	s.loginAttempts = 0
	s.notifyLocked()
	return nil
}

// CancelOAuth abandons a pending OAuth flow.
func (s *Store) CancelOAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateOAuthPending {
		return
	}

	s.state = domain.StateUnauthenticated
	s.notifyLocked()
}
