package wizard

import (
	"context"
	"sync"

	"annotator/internal/annotate/projector"
)

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, draftID string) (projector.Config, error) {
	id, err := normalizeID(draftID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(raw)
}

func (s *MemoryStore) Put(_ context.Context, draftID string, cfg projector.Config) error {
	id, err := normalizeID(draftID)
	if err != nil {
		return err
	}
	raw, err := encode(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.byID[id] = raw
	s.mu.Unlock()
	return nil
}
