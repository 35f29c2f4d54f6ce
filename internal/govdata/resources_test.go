package govdata

import (
	"testing"
	"time"

	"github.com/civisearch/govseek/internal/cache"
	"github.com/civisearch/govseek/internal/config"
)

func TestCacheKey_ParamOrderIndependent(t *testing.T) {
	res := Resource{Category: cache.CategoryCrime, URL: "https://example.org/crimes"}

	a := CacheKey(res, map[string]string{"lat": "51.5", "lng": "-0.1", "date": "2025-01"})
	b := CacheKey(res, map[string]string{"date": "2025-01", "lng": "-0.1", "lat": "51.5"})

	if a != b {
		t.Errorf("keys should match regardless of param order: %q vs %q", a, b)
	}
	if a != "crime:https://example.org/crimes?date=2025-01&lat=51.5&lng=-0.1" {
		t.Errorf("unexpected key shape: %q", a)
	}
}

func TestCacheKey_NoParams(t *testing.T) {
	res := Resource{Category: cache.CategoryGeneric, URL: "https://example.org/x"}
	if got := CacheKey(res, nil); got != "generic:https://example.org/x" {
		t.Errorf("unexpected key: %q", got)
	}
}

func TestDefaultResources_Policies(t *testing.T) {
	resources := DefaultResources(&config.Config{
		CrimeAPIURL:    "http://c",
		PlanningAPIURL: "http://p",
		SpendingAPIURL: "http://s",
		PostcodeAPIURL: "http://pc",
	})

	checks := []struct {
		name string
		res  Resource
		ttl  time.Duration
		cat  cache.Category
	}{
		{"crime", resources.Crime, time.Hour, cache.CategoryCrime},
		{"planning", resources.Planning, 30 * time.Minute, cache.CategoryPlanning},
		{"spending", resources.Spending, time.Hour, cache.CategorySpending},
		{"postcode", resources.Postcode, 24 * time.Hour, cache.CategoryGeneric},
	}

	for _, check := range checks {
		t.Run(check.name, func(t *testing.T) {
			if check.res.TTL != check.ttl {
				t.Errorf("expected TTL %s, got %s", check.ttl, check.res.TTL)
			}
			if check.res.Category != check.cat {
				t.Errorf("expected category %s, got %s", check.cat, check.res.Category)
			}
			if !check.res.AllowStale {
				t.Error("all sources allow stale fallback")
			}
		})
	}
}
