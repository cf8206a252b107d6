package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoFixture []byte

type fixture struct {
	Categories []Category     `yaml:"categories"`
	Components []GUIComponent `yaml:"components"`
	Functions  []Function     `yaml:"functions"`
	Params     []Param        `yaml:"params"`
}

// DemoSource serves catalogs from a YAML fixture. It backs the mock/demo mode
// of the screen and can follow edits to a fixture file on disk.
type DemoSource struct {
	path string
	log  *zap.Logger

	mu   sync.RWMutex
	data fixture
}

// NewDemoSource loads the fixture at path, or the built-in one when path is
// empty.
func NewDemoSource(path string, log *zap.Logger) (*DemoSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &DemoSource{path: path, log: log}
	raw := demoFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog fixture: %w", err)
		}
		raw = b
	}
	if err := s.reload(raw); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DemoSource) reload(raw []byte) error {
	var next fixture
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&next); err != nil {
		return fmt.Errorf("parse catalog fixture: %w", err)
	}
	s.mu.Lock()
	s.data = next
	s.mu.Unlock()
	return nil
}

// Watch reloads the fixture file whenever it is written, until ctx ends. A
// fixture that fails to parse is logged and the previous data kept.
func (s *DemoSource) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog watcher: %w", err)
	}
	defer w.Close()
	// editors often replace the file, so watch the directory
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			raw, err := os.ReadFile(target)
			if err != nil {
				s.log.Warn("catalog fixture read failed", zap.String("path", target), zap.Error(err))
				continue
			}
			if err := s.reload(raw); err != nil {
				s.log.Warn("catalog fixture rejected", zap.String("path", target), zap.Error(err))
				continue
			}
			s.log.Info("catalog fixture reloaded", zap.String("path", target))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func (s *DemoSource) Categories(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Categories), nil
}

func (s *DemoSource) GUIComponents(_ context.Context, category string) ([]GUIComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GUIComponent, 0, len(s.data.Components))
	for _, c := range s.data.Components {
		if category == "" || c.Category == category {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *DemoSource) Functions(_ context.Context, category string) ([]Function, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Function, 0, len(s.data.Functions))
	for _, f := range s.data.Functions {
		if category == "" || f.Category == category {
			f.Params = slices.Clone(f.Params)
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *DemoSource) Params(_ context.Context) ([]Param, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Params), nil
}
