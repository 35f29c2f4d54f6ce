package govdata

import (
	"sort"
	"strings"
	"time"

	"github.com/civisearch/govseek/internal/cache"
	"github.com/civisearch/govseek/internal/config"
)

// Resource describes one upstream data source and its caching policy. The
// policies are fixed at the call site, not configurable per request.
type Resource struct {
	Name       string
	Category   cache.Category
	URL        string
	TTL        time.Duration
	AllowStale bool
}

// Resources holds the descriptors for all supported sources
type Resources struct {
	Crime    Resource
	Planning Resource
	Spending Resource
	Postcode Resource
}

// DefaultResources builds the per-source policies from configuration
func DefaultResources(cfg *config.Config) Resources {
	return Resources{
		Crime: Resource{
			Name:       "crime",
			Category:   cache.CategoryCrime,
			URL:        cfg.CrimeAPIURL,
			TTL:        time.Hour,
			AllowStale: true,
		},
		Planning: Resource{
			Name:       "planning",
			Category:   cache.CategoryPlanning,
			URL:        cfg.PlanningAPIURL,
			TTL:        30 * time.Minute,
			AllowStale: true,
		},
		Spending: Resource{
			Name:       "spending",
			Category:   cache.CategorySpending,
			URL:        cfg.SpendingAPIURL,
			TTL:        time.Hour,
			AllowStale: true,
		},
		Postcode: Resource{
			Name:       "postcode",
			Category:   cache.CategoryGeneric,
			URL:        cfg.PostcodeAPIURL,
			TTL:        24 * time.Hour,
			AllowStale: true,
		},
	}
}

// CacheKey builds the deterministic fingerprint for a resource and its query
// parameters. Parameters are sorted by name so equivalent requests share one
// entry regardless of argument order.
func CacheKey(res Resource, params map[string]string) string {
	var b strings.Builder
	b.WriteString(string(res.Category))
	b.WriteByte(':')
	b.WriteString(res.URL)

	if len(params) == 0 {
		return b.String()
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
