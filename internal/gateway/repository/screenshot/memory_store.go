package screenshot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(_ context.Context, draftID, name string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectKey(draftID, name)] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, draftID, name string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[objectKey(draftID, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, draftID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return nil, fmt.Errorf("%w: draft_id is required", ErrInvalidKey)
	}
	prefix := draftID + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 8)
	for key := range s.data {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetURL returns "" because in-memory screenshots are only served inline.
func (s *MemoryStore) GetURL(_ context.Context, _, _ string) (string, error) {
	return "", nil
}
