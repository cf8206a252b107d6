package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotator/internal/annotate"
)

func TestDemoSourceServesBuiltInFixture(t *testing.T) {
	src, err := NewDemoSource("", nil)
	require.NoError(t, err)

	snap, err := Load(context.Background(), src, Filter{ComponentCategory: "gui_elements", FunctionCategory: "variability"})
	require.NoError(t, err)
	assert.Len(t, snap.Functions, 2)
	assert.Len(t, snap.Params, 2)
	assert.NotEmpty(t, snap.Components)
	assert.Len(t, snap.Categories, 2)

	params, err := snap.ResolveParams(1)
	require.NoError(t, err)
	assert.Equal(t, "Insert text", params[0].Label)
	assert.Equal(t, "Random UI", params[1].Label)

	none, err := src.GUIComponents(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDemoSourceRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("functions:\n  - id: 1\n    bogus: true\n"), 0o644))
	_, err := NewDemoSource(path, nil)
	assert.Error(t, err)
}

func TestDemoSourceWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params:\n  - id: 1\n    label: first\n"), 0o644))
	src, err := NewDemoSource(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("params:\n  - id: 1\n    label: second\n"), 0o644)
		params, _ := src.Params(context.Background())
		return len(params) == 1 && params[0].Label == "second"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestHTTPSourceDecodesListsAndPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/categories/":
			_, _ = w.Write([]byte(`[{"id":1,"name":"gui"}]`))
		case "/api/gui-components/":
			assert.Equal(t, "gui", r.URL.Query().Get("category"))
			_, _ = w.Write([]byte(`{"count":1,"next":null,"results":[{"id":4,"name":"btn","category":"gui"}]}`))
		case "/api/variability-functions/":
			_, _ = w.Write([]byte(`[{"id":1,"function_name":"copy_image","params":[1]}]`))
		case "/api/params/":
			_, _ = w.Write([]byte(`[{"id":1,"label":"Insert text","validation_needs":"Required"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/api/", "secret", time.Second)
	snap, err := Load(context.Background(), src, Filter{ComponentCategory: "gui"})
	require.NoError(t, err)
	assert.Equal(t, "btn", snap.Components[0].Name)
	assert.Equal(t, "copy_image", snap.Functions[0].Name)
	assert.True(t, snap.Params[0].Required())
}

func TestHTTPSourceStatusIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), NewHTTPSource(srv.URL, "", time.Second), Filter{})
	assert.ErrorIs(t, err, annotate.ErrNetwork)

	srv.Close()
	_, err = NewHTTPSource(srv.URL, "", time.Second).Params(context.Background())
	assert.ErrorIs(t, err, annotate.ErrNetwork)
}

type countingSource struct {
	Source
	calls atomic.Int32
	fail  bool
}

func (c *countingSource) Params(ctx context.Context) ([]Param, error) {
	c.calls.Add(1)
	if c.fail {
		return nil, errors.New("down")
	}
	return c.Source.Params(ctx)
}

func TestCachedSourceReadThrough(t *testing.T) {
	demo, err := NewDemoSource("", nil)
	require.NoError(t, err)
	origin := &countingSource{Source: demo}
	src := NewCachedSource(origin, 8, time.Minute)

	for i := 0; i < 3; i++ {
		params, err := src.Params(context.Background())
		require.NoError(t, err)
		assert.Len(t, params, 2)
	}
	assert.EqualValues(t, 1, origin.calls.Load())
	hits, misses := src.Stats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 1, misses)

	src.Purge()
	origin.fail = true
	_, err = src.Params(context.Background())
	assert.Error(t, err)
	origin.fail = false
	_, err = src.Params(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, origin.calls.Load(), "failures must not be cached")
}
