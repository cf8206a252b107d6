package screenshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore keeps screenshots under root/<draft>/<name>. Every resolved path
// must stay inside root after symlinks are followed.
type DiskStore struct {
	absRoot string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("screenshot dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &DiskStore{absRoot: abs}, nil
}

func (s *DiskStore) Put(_ context.Context, draftID, name string, content []byte) error {
	p, err := s.resolve(draftID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp screenshot: %w", err)
	}
	tmp := f.Name()
	_, werr := f.Write(content)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write screenshot: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod screenshot: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace screenshot: %w", err)
	}
	return nil
}

func isTempName(base string) bool {
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, ".tmp")
}

func (s *DiskStore) Get(_ context.Context, draftID, name string) ([]byte, error) {
	p, err := s.resolve(draftID, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	return b, nil
}

func (s *DiskStore) List(_ context.Context, draftID string) ([]string, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" || strings.Contains(draftID, "..") || strings.ContainsAny(draftID, `/\`) {
		return nil, fmt.Errorf("%w: draft_id %q", ErrInvalidKey, draftID)
	}
	dir := filepath.Join(s.absRoot, draftID)
	out := make([]string, 0, 8)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isTempName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// GetURL returns "" since disk screenshots are served through the gateway.
func (s *DiskStore) GetURL(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (s *DiskStore) resolve(draftID, name string) (string, error) {
	draftID, name, err := normalizeKey(draftID, name)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(draftID, `/\`) {
		return "", fmt.Errorf("%w: draft_id %q", ErrInvalidKey, draftID)
	}
	joined := filepath.Join(s.absRoot, draftID, filepath.FromSlash(name))
	// The file may not exist yet; check the deepest existing ancestor.
	probe := joined
	for {
		resolved, err := filepath.EvalSymlinks(probe)
		if err == nil {
			if !hasPathPrefix(resolved, s.absRoot) {
				return "", fmt.Errorf("%w: %s resolves outside the screenshot dir", ErrInvalidKey, name)
			}
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	return joined, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path+sep, root)
}
