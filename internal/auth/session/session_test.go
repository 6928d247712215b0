package session

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/trialgate/pkg/identitysdk"
)

// fakeClock is a manually advanced clock shared by the store under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeTimer records arms/cancels and lets tests fire the pending callback
// deterministically. It enforces the single-timer discipline the same way
// the production timer does.
type fakeTimer struct {
	mu        sync.Mutex
	arms      int
	cancels   int
	lastDelay time.Duration
	pending   func()
}

func (t *fakeTimer) Arm(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arms++
	t.lastDelay = delay
	t.pending = fn
}

func (t *fakeTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancels++
	t.pending = nil
}

func (t *fakeTimer) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		return 1
	}
	return 0
}

// Fire runs the pending callback, if any, the way a wall-clock timer would.
func (t *fakeTimer) Fire() {
	t.mu.Lock()
	fn := t.pending
	t.pending = nil
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// fakeIdentity is an in-memory identity service. Passwords and TOTP
// secrets are checked for real (TOTP via pquerna/otp) so the flows under
// test exercise the same grant semantics as the live service.
type fakeIdentity struct {
	mu sync.Mutex

	password   string
	mfaSecret  string // empty disables MFA for the account
	mfaToken   string
	userToken  string // access token minted on success
	refreshTok string

	transportErr error // when set, every grant fails with this error

	loginCalls   int
	mfaCalls     int
	refreshCalls int
	revokeCalls  int
	revokeErr    error
}

func (f *fakeIdentity) tokenResponse() *identitysdk.TokenResponse {
	return &identitysdk.TokenResponse{
		AccessToken:  f.userToken,
		RefreshToken: f.refreshTok,
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func (f *fakeIdentity) PasswordGrant(_ context.Context, _, password string) (*identitysdk.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++

	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if password != f.password {
		return nil, &identitysdk.APIError{
			StatusCode:  401,
			Code:        identitysdk.ErrorCodeInvalidGrant,
			Description: "invalid credentials",
		}
	}
	if f.mfaSecret != "" {
		return nil, &identitysdk.MFAChallengeError{
			MFAToken: f.mfaToken,
			Methods:  []string{"totp"},
		}
	}
	return f.tokenResponse(), nil
}

func (f *fakeIdentity) MFAOTPGrant(_ context.Context, mfaToken, code string) (*identitysdk.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mfaCalls++

	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if mfaToken != f.mfaToken || !totp.Validate(code, f.mfaSecret) {
		return nil, &identitysdk.APIError{
			StatusCode:  401,
			Code:        identitysdk.ErrorCodeInvalidGrant,
			Description: "invalid one-time code",
		}
	}
	return f.tokenResponse(), nil
}

func (f *fakeIdentity) RefreshGrant(_ context.Context, refreshToken string) (*identitysdk.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++

	if f.transportErr != nil {
		return nil, f.transportErr
	}
	if refreshToken != f.refreshTok {
		return nil, &identitysdk.APIError{
			StatusCode:  401,
			Code:        identitysdk.ErrorCodeInvalidGrant,
			Description: "invalid refresh token",
		}
	}
	// Rotate the refresh token like the live service does.
	f.refreshTok = refreshToken + "'"
	return f.tokenResponse(), nil
}

func (f *fakeIdentity) RevokeToken(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls++
	return f.revokeErr
}

func mintAccessToken(t *testing.T, sub, email, role string, mfaEnabled bool) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         sub,
		"email":       email,
		"role":        role,
		"mfa_enabled": mfaEnabled,
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("fake-identity-secret"))
	require.NoError(t, err)
	return signed
}

type testEnv struct {
	store    *Store
	identity *fakeIdentity
	storage  *memory.Store
	clock    *fakeClock
	timer    *fakeTimer
}

func newTestEnv(t *testing.T, identity *fakeIdentity) *testEnv {
	t.Helper()

	if identity.userToken == "" {
		identity.userToken = mintAccessToken(t, "user-1", "user@example.com", "participant", identity.mfaSecret != "")
	}
	if identity.refreshTok == "" {
		identity.refreshTok = "refresh-1"
	}
	if identity.mfaToken == "" {
		identity.mfaToken = "challenge-1"
	}

	clock := newFakeClock()
	timer := &fakeTimer{}
	storage := memory.NewStore()

	s := New(identity, storage, DefaultConfig(), slog.Default(),
		WithClock(clock.Now),
		WithTimer(timer),
	)

	return &testEnv{store: s, identity: identity, storage: storage, clock: clock, timer: timer}
}

// requireInvariant asserts that user and tokens are present iff the state
// is authenticated.
func requireInvariant(t *testing.T, snap domain.Snapshot) {
	t.Helper()

	if snap.State == domain.StateAuthenticated {
		require.NotNil(t, snap.User)
		require.NotNil(t, snap.Tokens)
	} else {
		require.Nil(t, snap.User)
		require.Nil(t, snap.Tokens)
	}
}
