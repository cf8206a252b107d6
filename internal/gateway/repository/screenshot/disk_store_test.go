package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(filepath.Join(t.TempDir(), "shots"))
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "d1", "home.png", []byte("a")))
	require.NoError(t, s.Put(ctx, "d1", "flows/cart.png", []byte("b")))

	got, err := s.Get(ctx, "d1", "flows/cart.png")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	names, err := s.List(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"flows/cart.png", "home.png"}, names)

	names, err = s.List(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = s.Get(ctx, "d1", "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStoreRejectsEscapes(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := t.TempDir()
	s, err := NewDiskStore(root)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Put(ctx, "d1", "../x.png", nil), ErrInvalidKey)
	assert.ErrorIs(t, s.Put(ctx, "a/b", "x.png", nil), ErrInvalidKey)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "d2"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "d2", "link")))
	_, err = s.Get(ctx, "d2", "link/secret.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDiskStoreConcurrentPutsToSameName(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "shots")
	s, err := NewDiskStore(root)
	require.NoError(t, err)

	payloads := make([][]byte, 8)
	for i := range payloads {
		payloads[i] = bytes.Repeat([]byte(fmt.Sprintf("%d", i)), 64<<10)
	}
	var wg sync.WaitGroup
	for _, p := range payloads {
		wg.Add(1)
		go func(p []byte) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, "d1", "home.png", p))
		}(p)
	}
	wg.Wait()

	got, err := s.Get(ctx, "d1", "home.png")
	require.NoError(t, err)
	assert.Contains(t, payloads, got)

	names, err := s.List(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"home.png"}, names)
	entries, err := os.ReadDir(filepath.Join(root, "d1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
