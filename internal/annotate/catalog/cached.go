package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedSource memoizes catalog reads in front of an origin source. Catalogs
// are reference data, so entries only expire by age.
type CachedSource struct {
	origin Source
	cache  *expirable.LRU[string, any]

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCachedSource(origin Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = 64
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{
		origin: origin,
		cache:  expirable.NewLRU[string, any](size, nil, ttl),
	}
}

func (s *CachedSource) Categories(ctx context.Context) ([]Category, error) {
	return cached(s, "categories", func() ([]Category, error) { return s.origin.Categories(ctx) })
}

func (s *CachedSource) GUIComponents(ctx context.Context, category string) ([]GUIComponent, error) {
	return cached(s, "components:"+category, func() ([]GUIComponent, error) { return s.origin.GUIComponents(ctx, category) })
}

func (s *CachedSource) Functions(ctx context.Context, category string) ([]Function, error) {
	return cached(s, "functions:"+category, func() ([]Function, error) { return s.origin.Functions(ctx, category) })
}

func (s *CachedSource) Params(ctx context.Context) ([]Param, error) {
	return cached(s, "params", func() ([]Param, error) { return s.origin.Params(ctx) })
}

// Purge drops every cached catalog.
func (s *CachedSource) Purge() {
	s.cache.Purge()
}

func (s *CachedSource) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

func cached[T any](s *CachedSource, key string, fetch func() ([]T, error)) ([]T, error) {
	if v, ok := s.cache.Get(key); ok {
		if list, ok := v.([]T); ok {
			s.hits.Add(1)
			return append([]T(nil), list...), nil
		}
	}
	s.misses.Add(1)
	list, err := fetch()
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, append([]T(nil), list...))
	return list, nil
}
