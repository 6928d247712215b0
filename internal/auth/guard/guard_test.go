package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/pkg/auditx"
)

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// fakeSession holds a fixed snapshot and records the calls the guards
// make against it.
type fakeSession struct {
	snap     domain.Snapshot
	touches  int
	logouts  int
	mfaMarks int
}

func (f *fakeSession) Snapshot() domain.Snapshot { return f.snap }
func (f *fakeSession) Touch()                    { f.touches++ }
func (f *fakeSession) MarkMFAVerified()          { f.mfaMarks++ }

func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	f.snap = domain.Snapshot{State: domain.StateUnauthenticated}
	return nil
}

type fakeGeo struct {
	country string
	err     error
	calls   int
}

func (f *fakeGeo) Lookup(context.Context, string) (string, error) {
	f.calls++
	return f.country, f.err
}

// captureSink records emitted audit events for assertion.
type captureSink struct {
	events []auditx.Event
}

func (s *captureSink) Emit(_ context.Context, event auditx.Event) {
	s.events = append(s.events, event)
}

func authenticatedSnap(role domain.Role, mfaEnabled bool) domain.Snapshot {
	return domain.Snapshot{
		State: domain.StateAuthenticated,
		User: &domain.User{
			ID:         "user-1",
			Email:      "user@example.com",
			Role:       role,
			MFAEnabled: mfaEnabled,
		},
		Tokens:            &domain.TokenSet{AccessToken: "a", RefreshToken: "r", IssuedAt: testNow, ExpiresIn: time.Hour},
		LastActivityAt:    testNow,
		LastMFAVerifiedAt: testNow,
	}
}

type pipelineEnv struct {
	pipeline *Pipeline
	session  *fakeSession
	geo      *fakeGeo
	audit    *captureSink
	now      time.Time
}

func newPipelineEnv(t *testing.T, snap domain.Snapshot) *pipelineEnv {
	t.Helper()

	env := &pipelineEnv{
		session: &fakeSession{snap: snap},
		geo:     &fakeGeo{country: "AU"},
		audit:   &captureSink{},
		now:     testNow,
	}
	env.pipeline = New(env.session, env.geo, env.audit, DefaultConfig(), nil,
		WithClock(func() time.Time { return env.now }),
	)
	return env
}

func TestPublicRouteBypassesAuthentication(t *testing.T) {
	env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})

	decision := env.pipeline.Evaluate(context.Background(), Navigation{
		Target: domain.Route{Name: "home", Public: true},
	})
	require.True(t, decision.Allowed)
	require.Zero(t, env.session.touches, "public routes must not count as activity")
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})

	decision := env.pipeline.Evaluate(context.Background(), Navigation{
		Target: domain.Route{Name: "dashboard"},
	})
	require.False(t, decision.Allowed)
	require.Equal(t, domain.RouteLogin, decision.To)
	require.Equal(t, domain.ReasonLoginRequired, decision.Reason)
	require.Equal(t, "dashboard", decision.ReturnTo)
	require.Equal(t, 1, env.session.touches)
}

func TestSessionTimeoutDestroysSession(t *testing.T) {
	snap := authenticatedSnap(domain.RoleParticipant, false)
	snap.LastActivityAt = testNow.Add(-25 * time.Hour)
	env := newPipelineEnv(t, snap)

	decision := env.pipeline.Evaluate(context.Background(), Navigation{
		Target: domain.Route{Name: "dashboard"},
	})
	require.False(t, decision.Allowed)
	require.Equal(t, domain.RouteLogin, decision.To)
	require.Equal(t, domain.ReasonSessionTimeout, decision.Reason)
	require.Equal(t, 1, env.session.logouts)
	require.Equal(t, domain.StateUnauthenticated, env.session.snap.State)
}

func TestAuthenticatedNavigationAllowedAndTouched(t *testing.T) {
	env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, false))

	decision := env.pipeline.Evaluate(context.Background(), Navigation{
		Target: domain.Route{Name: "dashboard"},
	})
	require.True(t, decision.Allowed)
	require.Equal(t, 1, env.session.touches)
	require.Zero(t, env.session.logouts)
}

func TestPendingStatesRedirect(t *testing.T) {
	t.Run("mfa challenge pending", func(t *testing.T) {
		env := newPipelineEnv(t, domain.Snapshot{State: domain.StateMFARequired})

		decision := env.pipeline.Evaluate(context.Background(), Navigation{
			Target: domain.Route{Name: "dashboard"},
		})
		require.Equal(t, domain.RouteMFAVerify, decision.To)
		require.Equal(t, domain.ReasonMFARequired, decision.Reason)
		require.Equal(t, "dashboard", decision.ReturnTo)
	})

	t.Run("oauth flow pending", func(t *testing.T) {
		env := newPipelineEnv(t, domain.Snapshot{State: domain.StateOAuthPending})

		decision := env.pipeline.Evaluate(context.Background(), Navigation{
			Target: domain.Route{Name: "dashboard"},
		})
		require.Equal(t, domain.RouteOAuthCallback, decision.To)
		require.Equal(t, domain.ReasonOAuthPending, decision.Reason)
	})
}

func TestRoleGuard(t *testing.T) {
	creatorRoute := domain.Route{
		Name:          "protocol-editor",
		RequiredRoles: []domain.Role{domain.RoleProtocolCreator, domain.RoleAdmin},
	}

	t.Run("wrong role is denied and audited", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, false))

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: creatorRoute})
		require.False(t, decision.Allowed)
		require.Equal(t, domain.RouteUnauthorized, decision.To)
		require.Equal(t, domain.ReasonRoleDenied, decision.Reason)

		require.Len(t, env.audit.events, 1)
		event := env.audit.events[0]
		require.Equal(t, "role", event.Guard)
		require.Equal(t, "protocol-editor", event.Route)
		require.Equal(t, "user-1", event.UserID)
		require.Equal(t, string(domain.RoleParticipant), event.Role)
		require.False(t, event.Allowed)
		require.False(t, event.ID.IsZero())
	})

	t.Run("member role is allowed and audited", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleProtocolCreator, false))

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: creatorRoute})
		require.True(t, decision.Allowed)

		require.Len(t, env.audit.events, 1)
		require.True(t, env.audit.events[0].Allowed)
	})

	t.Run("route without role requirements is not audited", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, false))

		decision := env.pipeline.Evaluate(context.Background(), Navigation{
			Target: domain.Route{Name: "dashboard"},
		})
		require.True(t, decision.Allowed)
		require.Empty(t, env.audit.events)
	})
}

func TestMFAStepUpGuard(t *testing.T) {
	stepUpRoute := domain.Route{Name: "export-records", RequiresMFA: true}

	t.Run("fresh verification is allowed and re-stamped", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, true))
		env.now = testNow.Add(10 * time.Minute)

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: stepUpRoute})
		require.True(t, decision.Allowed)
		require.Equal(t, 1, env.session.mfaMarks)
	})

	t.Run("stale verification redirects to verify", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, true))
		env.now = testNow.Add(40 * time.Minute)

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: stepUpRoute})
		require.False(t, decision.Allowed)
		require.Equal(t, domain.RouteMFAVerify, decision.To)
		require.Equal(t, domain.ReasonMFAStale, decision.Reason)
		require.Equal(t, "export-records", decision.ReturnTo)
		require.Zero(t, env.session.mfaMarks)
	})

	t.Run("never verified counts as stale", func(t *testing.T) {
		snap := authenticatedSnap(domain.RoleParticipant, true)
		snap.LastMFAVerifiedAt = time.Time{}
		env := newPipelineEnv(t, snap)

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: stepUpRoute})
		require.Equal(t, domain.RouteMFAVerify, decision.To)
	})

	t.Run("account without mfa redirects to setup", func(t *testing.T) {
		env := newPipelineEnv(t, authenticatedSnap(domain.RoleParticipant, false))

		decision := env.pipeline.Evaluate(context.Background(), Navigation{Target: stepUpRoute})
		require.Equal(t, domain.RouteMFASetup, decision.To)
		require.Equal(t, domain.ReasonMFANotEnabled, decision.Reason)
	})
}

func TestGeoGuard(t *testing.T) {
	restricted := domain.Route{Name: "trial-au", Public: true, RestrictToCountry: "AU"}
	nav := Navigation{Target: restricted, ClientIP: "203.0.113.7"}

	t.Run("matching country is allowed and memoised", func(t *testing.T) {
		env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})

		require.True(t, env.pipeline.Evaluate(context.Background(), nav).Allowed)
		require.True(t, env.pipeline.Evaluate(context.Background(), nav).Allowed)
		require.Equal(t, 1, env.geo.calls, "repeat navigations must reuse the cached lookup")
	})

	t.Run("mismatched country is denied", func(t *testing.T) {
		env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})
		env.geo.country = "US"

		decision := env.pipeline.Evaluate(context.Background(), nav)
		require.False(t, decision.Allowed)
		require.Equal(t, domain.RouteUnauthorized, decision.To)
		require.Equal(t, domain.ReasonGeoRestricted, decision.Reason)
	})

	t.Run("lookup failure denies and is not cached", func(t *testing.T) {
		env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})
		env.geo.err = errors.New("lookup service unavailable")

		decision := env.pipeline.Evaluate(context.Background(), nav)
		require.False(t, decision.Allowed)
		require.Equal(t, domain.ReasonGeoLookupFailed, decision.Reason)

		// Service recovers; the next navigation retries.
		env.geo.err = nil
		require.True(t, env.pipeline.Evaluate(context.Background(), nav).Allowed)
		require.Equal(t, 2, env.geo.calls)
	})
}

func TestGuardOrderShortCircuits(t *testing.T) {
	// A failing geographic check must stop the chain before the
	// authentication guard records any activity.
	env := newPipelineEnv(t, domain.Snapshot{State: domain.StateUnauthenticated})
	env.geo.err = errors.New("lookup service unavailable")

	decision := env.pipeline.Evaluate(context.Background(), Navigation{
		Target:   domain.Route{Name: "trial-au", RestrictToCountry: "AU"},
		ClientIP: "203.0.113.7",
	})
	require.Equal(t, domain.ReasonGeoLookupFailed, decision.Reason)
	require.Zero(t, env.session.touches)
}
