// Package memcache holds in-process caches built on gcache.
package memcache

import (
	"context"
	"time"

	"github.com/bluele/gcache"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/ports"
	"github.com/samirrijal/districtmap/internal/pkg/metrics"
)

// CachedSource keeps recently fetched datasets in an LRU so a terminus refresh
// does not refetch the boundary and line datasets.
type CachedSource struct {
	next  ports.DatasetSource
	cache gcache.Cache
}

// NewCachedSource wraps next with an LRU of size entries expiring after ttl.
func NewCachedSource(next ports.DatasetSource, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = 32
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &CachedSource{next: next, cache: b.Build()}
}

// Fetch returns the cached dataset or loads it from the wrapped source.
func (s *CachedSource) Fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	if v, err := s.cache.Get(name); err == nil {
		if fc, ok := v.(*geojson.FeatureCollection); ok {
			metrics.CacheHits.WithLabelValues("dataset").Inc()
			return fc, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("dataset").Inc()

	fc, err := s.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(name, fc)
	return fc, nil
}

// Forget drops a dataset so the next Fetch reloads it.
func (s *CachedSource) Forget(name string) {
	s.cache.Remove(name)
}

// Len returns the number of cached datasets.
func (s *CachedSource) Len() int {
	return s.cache.Len(false)
}
