package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
)

// LoginStatus classifies the expected outcomes of a login attempt.
type LoginStatus int

const (
	LoginSucceeded LoginStatus = iota
	LoginMFARequired
	LoginInvalidCredentials
	LoginRateLimited
)

// LoginResult is the typed outcome of Login. Callers branch on Status;
// errors are reserved for transport/server faults and state misuse.
type LoginResult struct {
	Status LoginStatus

	// AttemptsRemaining is how many further credential rejections will
	// be tolerated before lockout. Meaningful for LoginInvalidCredentials.
	AttemptsRemaining int

	// Reason carries the server-provided description when available.
	Reason string
}

// MFAStatus classifies the expected outcomes of an MFA verification.
type MFAStatus int

const (
	MFAVerified MFAStatus = iota
	MFAInvalidCode
	MFARateLimited
)

// MFAResult is the typed outcome of VerifyMFA.
type MFAResult struct {
	Status            MFAStatus
	AttemptsRemaining int
}

// Login authenticates with email and password.
//
// Once the credential-rejection counter reaches the configured maximum,
// further attempts inside the lockout window fail with LoginRateLimited
// before any network call is issued. Credential rejections increment the
// counter; transport and server faults do not (being unable to reach the
// identity service says nothing about the password).
func (s *Store) Login(ctx context.Context, email, password string) (LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateUnauthenticated:
	case domain.StateMFARequired:
		// Restarting login abandons the pending challenge.
		s.mfaChallenge = ""
		s.state = domain.StateUnauthenticated
	default:
		return LoginResult{}, fmt.Errorf("%w: login from %s", domain.ErrInvalidState, s.state)
	}

	now := s.now()
	if s.loginAttempts > 0 && now.Sub(s.loginWindowStart) >= s.cfg.LoginLockoutWindow {
		// Lockout window elapsed, start over.
		s.loginAttempts = 0
	}
	if s.loginAttempts >= s.cfg.MaxLoginAttempts {
		s.logger.Info("login refused: rate limited", "attempts", s.loginAttempts)
		return LoginResult{Status: LoginRateLimited}, nil
	}

	resp, err := s.identity.PasswordGrant(ctx, email, password)
	if err != nil {
		var challenge *identitysdk.MFAChallengeError
		if errors.As(err, &challenge) {
			s.state = domain.StateMFARequired
			s.mfaChallenge = challenge.MFAToken
			s.mfaAttempts = 0
			s.notifyLocked()
			return LoginResult{Status: LoginMFARequired}, nil
		}

		var apiErr *identitysdk.APIError
		if errors.As(err, &apiErr) && apiErr.CredentialsRejected() {
			if s.loginAttempts == 0 {
				s.loginWindowStart = now
			}
			s.loginAttempts++
			s.logger.Info("login rejected: invalid credentials", "attempts", s.loginAttempts)
			return LoginResult{
				Status:            LoginInvalidCredentials,
				AttemptsRemaining: s.cfg.MaxLoginAttempts - s.loginAttempts,
				Reason:            apiErr.Description,
			}, nil
		}

		return LoginResult{}, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	}

	if err := s.establishLocked(ctx, resp); err != nil {
		return LoginResult{}, err
	}
	s.loginAttempts = 0
	s.notifyLocked()
	return LoginResult{Status: LoginSucceeded}, nil
}

// VerifyMFA completes a pending MFA challenge with a one-time code. Valid
// only in StateMFARequired. Failed codes are counted on their own
// limiter, independent of the login counter.
func (s *Store) VerifyMFA(ctx context.Context, code string) (MFAResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateMFARequired {
		return MFAResult{}, fmt.Errorf("%w: verify_mfa from %s", domain.ErrInvalidState, s.state)
	}

	now := s.now()
	if s.mfaAttempts > 0 && now.Sub(s.mfaWindowStart) >= s.cfg.MFAAttemptWindow {
		s.mfaAttempts = 0
	}
	if s.mfaAttempts >= s.cfg.MaxMFAAttempts {
		s.logger.Info("mfa verification refused: rate limited", "attempts", s.mfaAttempts)
		return MFAResult{Status: MFARateLimited}, nil
	}

	resp, err := s.identity.MFAOTPGrant(ctx, s.mfaChallenge, code)
	if err != nil {
		var apiErr *identitysdk.APIError
		if errors.As(err, &apiErr) && apiErr.CredentialsRejected() {
			if s.mfaAttempts == 0 {
				s.mfaWindowStart = now
			}
			s.mfaAttempts++
			s.logger.Info("mfa verification rejected: invalid code", "attempts", s.mfaAttempts)
			return MFAResult{
				Status:            MFAInvalidCode,
				AttemptsRemaining: s.cfg.MaxMFAAttempts - s.mfaAttempts,
			}, nil
		}

		return MFAResult{}, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	}

	if err := s.establishLocked(ctx, resp); err != nil {
		return MFAResult{}, err
	}
	s.loginAttempts = 0
	s.mfaAttempts = 0
	s.mfaChallenge = ""
	s.lastMFAVerifiedAt = now
	s.notifyLocked()
	return MFAResult{Status: MFAVerified}, nil
}
