package guard

import (
	"context"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
)

// authnGuard gates private routes behind the session state. An
// authenticated session idle past the session timeout is destroyed
// before the state dispatch, so a stale session can never pass.
func (p *Pipeline) authnGuard(ctx context.Context, nav Navigation) domain.Decision {
	if nav.Target.Public {
		return domain.Allow()
	}

	snap := p.session.Snapshot()

	if snap.State == domain.StateAuthenticated && p.now().Sub(snap.LastActivityAt) > p.cfg.SessionTimeout {
		if err := p.session.Logout(ctx); err != nil {
			p.logger.Warn("session-timeout logout failed", "error", err)
		}
		return domain.Redirect(domain.RouteLogin, domain.ReasonSessionTimeout)
	}

	p.session.Touch()

	switch snap.State {
	case domain.StateAuthenticated:
		return domain.Allow()
	case domain.StateMFARequired:
		return domain.RedirectReturn(domain.RouteMFAVerify, domain.ReasonMFARequired, nav.Target.Name)
	case domain.StateOAuthPending:
		return domain.Redirect(domain.RouteOAuthCallback, domain.ReasonOAuthPending)
	default:
		return domain.RedirectReturn(domain.RouteLogin, domain.ReasonLoginRequired, nav.Target.Name)
	}
}
