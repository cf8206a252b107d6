package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"annotator/internal/annotate/viewport"
)

var ErrNotFound = errors.New("session not found")

// Manager owns the live sessions. The least recently used session is closed
// once more than size are open.
type Manager struct {
	deps     Deps
	log      *zap.Logger
	sessions *lru.Cache[string, *Session]
}

func NewManager(deps Deps, size int) (*Manager, error) {
	if size <= 0 {
		size = 256
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Drafts == nil {
		deps.Drafts = NewDraftLocks()
	}
	log := deps.Log.Named("sessions")
	cache, err := lru.NewWithEvict(size, func(id string, s *Session) {
		s.Close()
		log.Debug("session released", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Manager{deps: deps, log: log, sessions: cache}, nil
}

// Open creates and mounts a session. A session that fails to mount is
// discarded.
func (m *Manager) Open(ctx context.Context, p Params) (*Session, error) {
	s, err := New(uuid.NewString(), p, m.deps, viewport.NewObserver())
	if err != nil {
		return nil, err
	}
	if err := s.Mount(ctx); err != nil {
		s.Close()
		return nil, err
	}
	m.sessions.Add(s.ID(), s)
	m.log.Info("session opened", zap.String("session_id", s.ID()), zap.Int("open", m.sessions.Len()))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	if !m.sessions.Remove(id) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (m *Manager) Len() int { return m.sessions.Len() }

// CloseAll closes every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.sessions.Purge()
}
