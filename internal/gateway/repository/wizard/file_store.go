package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"annotator/internal/annotate/projector"
)

// FileStore keeps every draft's config in a single JSON document, loaded
// lazily on first use and rewritten on each Put.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byID     map[string]json.RawMessage
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, byID: make(map[string]json.RawMessage)}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			s.loadErr = fmt.Errorf("read wizard file: %w", err)
			return
		}
		if len(b) == 0 {
			return
		}
		rows := map[string]json.RawMessage{}
		if err := json.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("parse wizard file %s: %w", s.path, err)
			return
		}
		s.mu.Lock()
		s.byID = rows
		s.mu.Unlock()
	})
	return s.loadErr
}

func (s *FileStore) Get(_ context.Context, draftID string) (projector.Config, error) {
	id, err := normalizeID(draftID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(); err != nil {
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

func (s *FileStore) Put(_ context.Context, draftID string, cfg projector.Config) error {
	id, err := normalizeID(draftID)
	if err != nil {
		return err
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	raw, err := encode(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.byID[id]
	s.byID[id] = raw
	if err := s.saveLocked(); err != nil {
		if had {
			s.byID[id] = prev
		} else {
			delete(s.byID, id)
		}
		return err
	}
	return nil
}

func (s *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.byID, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wizard file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create wizard dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write wizard file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace wizard file: %w", err)
	}
	return nil
}
