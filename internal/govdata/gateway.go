package govdata

import (
	"context"
	"errors"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/singleflight"

	"github.com/civisearch/govseek/internal/cache"
)

// FetchOptions adjusts a single FetchWithCache call. Zero values fall back to
// the resource's fixed policy.
type FetchOptions struct {
	Params       map[string]string
	TTL          time.Duration
	ForceRefresh bool
	AllowStale   bool
}

// Gateway wraps outbound calls to the external data sources with a sliding
// window rate limiter and stale-on-error fallback, using the cache store as
// its backing store.
type Gateway struct {
	store   *cache.Store
	fetcher Fetcher
	limiter *RateLimiter
	sf      singleflight.Group // For deduplicating concurrent fetches of the same key
}

// NewGateway creates a fetch gateway
func NewGateway(store *cache.Store, fetcher Fetcher, limiter *RateLimiter) *Gateway {
	return &Gateway{
		store:   store,
		fetcher: fetcher,
		limiter: limiter,
	}
}

// FetchWithCache returns the cached payload for (res, params) when live, or
// performs the external call and stores the result. Cache hits consume no
// rate budget. On upstream failure with stale fallback allowed, a previously
// cached value is returned even if expired.
func (g *Gateway) FetchWithCache(ctx context.Context, res Resource, opts FetchOptions) (any, error) {
	key := CacheKey(res, opts.Params)

	// Capture any existing value before the live check: a miss on an expired
	// entry deletes it, but it may still be needed as the stale fallback.
	stale, hasStale := g.store.GetStale(key)

	if !opts.ForceRefresh {
		if payload, ok := g.store.Get(key); ok {
			log.Debug().Str("key", key).Msg("Cache hit")
			return payload, nil
		}
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = res.TTL
	}
	allowStale := opts.AllowStale || res.AllowStale

	result, err, _ := g.sf.Do(key, func() (interface{}, error) {
		if err := g.limiter.Allow(); err != nil {
			return nil, err
		}

		payload, err := g.fetcher.Fetch(ctx, res.URL, opts.Params)
		if err != nil {
			return nil, &UpstreamError{URL: res.URL, Err: err}
		}

		g.store.Set(key, payload, res.Category, ttl)
		return payload, nil
	})

	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) && allowStale && hasStale {
			log.Warn().
				Str("key", key).
				Err(upstream.Err).
				Msg("Upstream fetch failed, serving stale cache entry")
			return stale, nil
		}
		return nil, err
	}

	return result, nil
}

// Refresh unconditionally evicts the existing cache entry and performs a
// forced fetch.
func (g *Gateway) Refresh(ctx context.Context, res Resource, params map[string]string) (any, error) {
	g.store.Delete(CacheKey(res, params))
	return g.FetchWithCache(ctx, res, FetchOptions{
		Params:       params,
		ForceRefresh: true,
	})
}
