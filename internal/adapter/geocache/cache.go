// Package geocache decorates any domain.Geocoder with an in-memory LRU cache.
package geocache

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/observability"
)

// CachedGeocoder wraps a Geocoder with a bounded LRU cache keyed by the
// normalized place name.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache
	metrics *observability.Metrics
}

// New creates a cache decorator holding at most maxEntries results.
func New(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name string) (domain.GeocodingResult, error) {
	key := cacheKey(name)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return v.(domain.GeocodingResult), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name)
	if err != nil {
		return result, err
	}
	// Misses are not cached so a name the provider could not resolve is retried.
	if result.Found() {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached entries.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}

func cacheKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
