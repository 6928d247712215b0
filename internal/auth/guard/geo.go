package guard

import (
	"context"
	"strings"
	"sync"

	"github.com/aussiebroadwan/trialgate/internal/auth/domain"
)

// geoCache memoises successful lookups per route and client IP so a
// restricted route costs one lookup, not one per navigation. Failures
// are not cached; the next navigation retries.
type geoCache struct {
	mu        sync.Mutex
	countries map[string]string
}

func newGeoCache() *geoCache {
	return &geoCache{countries: make(map[string]string)}
}

func (c *geoCache) get(route, ip string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	country, ok := c.countries[route+"|"+ip]
	return country, ok
}

func (c *geoCache) put(route, ip, country string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countries[route+"|"+ip] = country
}

// geoGuard enforces a route's country restriction. Lookup failures deny
// the navigation: granting access to a restricted protocol from the
// wrong jurisdiction is worse than an extra denial.
func (p *Pipeline) geoGuard(ctx context.Context, nav Navigation) domain.Decision {
	restriction := nav.Target.RestrictToCountry
	if restriction == "" {
		return domain.Allow()
	}

	country, ok := p.geoCache.get(nav.Target.Name, nav.ClientIP)
	if !ok {
		resolved, err := p.geo.Lookup(ctx, nav.ClientIP)
		if err != nil {
			p.logger.Warn("geographic lookup failed, denying navigation",
				"route", nav.Target.Name,
				"error", err,
			)
			return domain.Redirect(domain.RouteUnauthorized, domain.ReasonGeoLookupFailed)
		}
		country = resolved
		p.geoCache.put(nav.Target.Name, nav.ClientIP, country)
	}

	if !strings.EqualFold(country, restriction) {
		return domain.Redirect(domain.RouteUnauthorized, domain.ReasonGeoRestricted)
	}
	return domain.Allow()
}
