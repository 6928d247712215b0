package guard

import (
	"context"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
)

// mfaGuard enforces step-up verification on routes that require it. A
// fresh verification extends its own freshness window; a stale one
// bounces through MFA-verify and back.
func (p *Pipeline) mfaGuard(_ context.Context, nav Navigation) domain.Decision {
	if !nav.Target.RequiresMFA {
		return domain.Allow()
	}

	snap := p.session.Snapshot()

	if snap.State != domain.StateAuthenticated {
		return domain.RedirectReturn(domain.RouteLogin, domain.ReasonLoginRequired, nav.Target.Name)
	}
	if !snap.User.MFAEnabled {
		return domain.Redirect(domain.RouteMFASetup, domain.ReasonMFANotEnabled)
	}
	if snap.LastMFAVerifiedAt.IsZero() || p.now().Sub(snap.LastMFAVerifiedAt) > p.cfg.MFAStepUpTimeout {
		return domain.RedirectReturn(domain.RouteMFAVerify, domain.ReasonMFAStale, nav.Target.Name)
	}

	p.session.MarkMFAVerified()
	return domain.Allow()
}
