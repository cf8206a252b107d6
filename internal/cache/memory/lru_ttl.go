package memory

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	size      int
}

// LRUTTL is a threadsafe LRU cache with per-entry TTL and an optional byte
// budget. Expired entries are dropped lazily on access.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[K]*list.Element
	maxEntries int
	maxBytes   int
	totalBytes int
	ttl        time.Duration
	now        func() time.Time
	onEvict    func(K, V)
}

type Option[K comparable, V any] func(*LRUTTL[K, V])

// WithClock replaces time.Now, mostly for tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LRUTTL[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvict registers a callback run for entries pushed out by capacity or
// expiry. It is not called for explicit Delete or Clear.
func WithEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *LRUTTL[K, V]) { c.onEvict = fn }
}

func NewLRUTTL[K comparable, V any](maxEntries int, maxBytes int, ttl time.Duration, opts ...Option[K, V]) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	c := &LRUTTL[K, V]{
		ll:         list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	ele, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	ent := ele.Value.(*entry[K, V])
	if c.now().After(ent.expiresAt) {
		c.removeElement(ele)
		c.mu.Unlock()
		c.evicted(ent)
		return zero, false
	}
	c.ll.MoveToFront(ele)
	c.mu.Unlock()
	return ent.value, true
}

func (c *LRUTTL[K, V]) Set(key K, value V, sizeBytes int) {
	if c == nil {
		return
	}
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	c.mu.Lock()
	expires := c.now().Add(c.ttl)
	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		c.totalBytes += sizeBytes - ent.size
		ent.value = value
		ent.size = sizeBytes
		ent.expiresAt = expires
		c.ll.MoveToFront(ele)
	} else {
		ent := &entry[K, V]{key: key, value: value, size: sizeBytes, expiresAt: expires}
		c.items[key] = c.ll.PushFront(ent)
		c.totalBytes += sizeBytes
	}
	dropped := c.evictLocked()
	c.mu.Unlock()
	for _, ent := range dropped {
		c.evicted(ent)
	}
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.removeElement(ele)
	}
}

func (c *LRUTTL[K, V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll = list.New()
	c.items = make(map[K]*list.Element)
	c.totalBytes = 0
}

// Len counts resident entries, including expired ones not yet dropped.
func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRUTTL[K, V]) Bytes() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

func (c *LRUTTL[K, V]) evictLocked() []*entry[K, V] {
	var dropped []*entry[K, V]
	for c.ll.Len() > 0 {
		if c.ll.Len() <= c.maxEntries && (c.maxBytes <= 0 || c.totalBytes <= c.maxBytes) {
			break
		}
		back := c.ll.Back()
		c.removeElement(back)
		dropped = append(dropped, back.Value.(*entry[K, V]))
	}
	return dropped
}

func (c *LRUTTL[K, V]) evicted(ent *entry[K, V]) {
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}

func (c *LRUTTL[K, V]) removeElement(ele *list.Element) {
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	ent := ele.Value.(*entry[K, V])
	delete(c.items, ent.key)
	c.totalBytes -= ent.size
	if c.totalBytes < 0 {
		c.totalBytes = 0
	}
}
