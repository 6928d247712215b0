package guard

import (
	"context"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
	"github.com/aussiebroadwan/trialgate/pkg/auditx"
)

// roleGuard enforces a route's required-role set by membership, no
// hierarchy. Every decision on a role-gated route, allow and deny alike,
// is emitted to the audit sink.
func (p *Pipeline) roleGuard(ctx context.Context, nav Navigation) domain.Decision {
	if len(nav.Target.RequiredRoles) == 0 {
		return domain.Allow()
	}

	snap := p.session.Snapshot()

	var userID string
	var role domain.Role
	if snap.User != nil {
		userID = snap.User.ID
		role = snap.User.Role
	}

	decision := domain.Allow()
	reason := ""
	if snap.State != domain.StateAuthenticated || !nav.Target.RequiresRole(role) {
		decision = domain.Redirect(domain.RouteUnauthorized, domain.ReasonRoleDenied)
		reason = domain.ReasonRoleDenied
	}

	p.audit.Emit(ctx, auditx.NewEvent(
		p.now(), "role", nav.Target.Name, userID, string(role), decision.Allowed, reason,
	))
	return decision
}
