package screenshot

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	memcache "annotator/internal/cache/memory"
	shotrepo "annotator/internal/gateway/repository/screenshot"
)

type Store = shotrepo.Store

// Tier bounds one of the cache layers.
type Tier struct {
	TTL        time.Duration
	MaxEntries int
	MaxBytes   int
}

type CacheConfig struct {
	Blob Tier
	List Tier
	URL  Tier
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Blob: Tier{TTL: 10 * time.Minute, MaxEntries: 256, MaxBytes: 128 << 20},
		List: Tier{TTL: 30 * time.Second, MaxEntries: 256},
		URL:  Tier{TTL: 5 * time.Minute, MaxEntries: 512},
	}
}

func (t Tier) withDefaults(def Tier) Tier {
	if t.TTL <= 0 {
		t.TTL = def.TTL
	}
	if t.MaxEntries <= 0 {
		t.MaxEntries = def.MaxEntries
	}
	if t.MaxBytes < 0 {
		t.MaxBytes = def.MaxBytes
	}
	return t
}

type Counter struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

type MetricsSnapshot struct {
	Blob           Counter `json:"blob"`
	List           Counter `json:"list"`
	URL            Counter `json:"url"`
	Evictions      uint64  `json:"evictions"`
	OriginReads    uint64  `json:"origin_reads"`
	OriginWrites   uint64  `json:"origin_writes"`
	OriginReadErr  uint64  `json:"origin_read_errors"`
	OriginWriteErr uint64  `json:"origin_write_errors"`
}

type counter struct{ hits, misses atomic.Uint64 }

func (c *counter) load() Counter { return Counter{Hits: c.hits.Load(), Misses: c.misses.Load()} }

type metrics struct {
	blob, list, url counter
	evictions       atomic.Uint64
	originReads     atomic.Uint64
	originWrites    atomic.Uint64
	originReadErr   atomic.Uint64
	originWriteErr  atomic.Uint64
}

// CachedStore fronts a screenshot store with in-memory read-through caches.
// Writes go to the origin first and only populate the cache on success.
type CachedStore struct {
	origin Store

	blobs *memcache.LRUTTL[string, []byte]
	lists *memcache.LRUTTL[string, []string]
	urls  *memcache.LRUTTL[string, string]
	m     metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	cfg.Blob = cfg.Blob.withDefaults(def.Blob)
	cfg.List = cfg.List.withDefaults(def.List)
	cfg.URL = cfg.URL.withDefaults(def.URL)

	s := &CachedStore{origin: origin}
	s.blobs = memcache.NewLRUTTL[string, []byte](cfg.Blob.MaxEntries, cfg.Blob.MaxBytes, cfg.Blob.TTL,
		memcache.WithEvict(func(string, []byte) { s.m.evictions.Add(1) }))
	s.lists = memcache.NewLRUTTL[string, []string](cfg.List.MaxEntries, 0, cfg.List.TTL)
	s.urls = memcache.NewLRUTTL[string, string](cfg.URL.MaxEntries, 0, cfg.URL.TTL)
	return s
}

func (s *CachedStore) Put(ctx context.Context, draftID, name string, content []byte) error {
	s.m.originWrites.Add(1)
	if err := s.origin.Put(ctx, draftID, name, content); err != nil {
		s.m.originWriteErr.Add(1)
		return err
	}
	key := cacheKey(draftID, name)
	copied := append([]byte(nil), content...)
	s.blobs.Set(key, copied, len(copied))
	s.lists.Delete(strings.TrimSpace(draftID))
	s.urls.Delete(key)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, draftID, name string) ([]byte, error) {
	key := cacheKey(draftID, name)
	if raw, ok := s.blobs.Get(key); ok {
		s.m.blob.hits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.m.blob.misses.Add(1)
	s.m.originReads.Add(1)

	raw, err := s.origin.Get(ctx, draftID, name)
	if err != nil {
		s.m.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]byte(nil), raw...)
	s.blobs.Set(key, copied, len(copied))
	return append([]byte(nil), copied...), nil
}

func (s *CachedStore) GetURL(ctx context.Context, draftID, name string) (string, error) {
	key := cacheKey(draftID, name)
	if url, ok := s.urls.Get(key); ok {
		s.m.url.hits.Add(1)
		return url, nil
	}
	s.m.url.misses.Add(1)
	s.m.originReads.Add(1)

	url, err := s.origin.GetURL(ctx, draftID, name)
	if err != nil {
		s.m.originReadErr.Add(1)
		return "", err
	}
	// Empty URLs mean "serve inline" and are cheap to recompute.
	if strings.TrimSpace(url) != "" {
		s.urls.Set(key, url, len(url))
	}
	return url, nil
}

func (s *CachedStore) List(ctx context.Context, draftID string) ([]string, error) {
	draftID = strings.TrimSpace(draftID)
	if names, ok := s.lists.Get(draftID); ok {
		s.m.list.hits.Add(1)
		return append([]string(nil), names...), nil
	}
	s.m.list.misses.Add(1)
	s.m.originReads.Add(1)

	names, err := s.origin.List(ctx, draftID)
	if err != nil {
		s.m.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]string(nil), names...)
	s.lists.Set(draftID, copied, 0)
	return append([]string(nil), copied...), nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Blob:           s.m.blob.load(),
		List:           s.m.list.load(),
		URL:            s.m.url.load(),
		Evictions:      s.m.evictions.Load(),
		OriginReads:    s.m.originReads.Load(),
		OriginWrites:   s.m.originWrites.Load(),
		OriginReadErr:  s.m.originReadErr.Load(),
		OriginWriteErr: s.m.originWriteErr.Load(),
	}
}

func cacheKey(draftID, name string) string {
	return strings.TrimSpace(draftID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}
