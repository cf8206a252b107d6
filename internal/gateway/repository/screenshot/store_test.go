package screenshot

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotator/internal/annotate"
	"annotator/internal/annotate/geometry"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "d1", "/home.png", []byte("a")))
	require.NoError(t, s.Put(ctx, "d1", "cart.png", []byte("b")))
	require.NoError(t, s.Put(ctx, "d2", "home.png", []byte("c")))

	got, err := s.Get(ctx, "d1", "home.png")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))

	names, err := s.List(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cart.png", "home.png"}, names)

	_, err = s.Get(ctx, "d1", "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Put(ctx, "", "x.png", nil))
	assert.Error(t, s.Put(ctx, "d1", "../escape.png", nil))
}

func TestProbeReadsNaturalSize(t *testing.T) {
	size, format, err := Probe(pngBytes(t, 800, 600))
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, size)
	assert.Equal(t, "png", format)

	_, _, err = Probe([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoaderFromStoreAndURL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "d1", "home.png", pngBytes(t, 64, 32)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shot.png":
			_, _ = w.Write(pngBytes(t, 10, 20))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	srvURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	l := NewLoader(store, time.Second, []string{srvURL.Host})

	img, err := l.Load(ctx, "d1", "home.png")
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 64, Height: 32}, img.Size)

	img, err = l.Load(ctx, "d1", srv.URL+"/shot.png")
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 10, Height: 20}, img.Size)
	assert.Equal(t, srv.URL+"/shot.png", img.URL)

	_, err = l.Load(ctx, "d1", srv.URL+"/broken")
	assert.ErrorIs(t, err, annotate.ErrNetwork)
	_, err = l.Load(ctx, "d1", srv.URL+"/gone")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Load(ctx, "d1", "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoaderRefusesHostsOutsideAllowList(t *testing.T) {
	ctx := context.Background()
	fetched := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched++
		if r.URL.Path == "/elsewhere" {
			http.Redirect(w, r, "http://169.254.169.254/latest/meta-data", http.StatusFound)
			return
		}
		_, _ = w.Write(pngBytes(t, 4, 4))
	}))
	defer srv.Close()
	srvURL, err := url.Parse(srv.URL)
	require.NoError(t, err)

	closed := NewLoader(NewMemoryStore(), time.Second, nil)
	_, err = closed.Load(ctx, "d1", srv.URL+"/shot.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Zero(t, fetched)

	l := NewLoader(NewMemoryStore(), time.Second, []string{"images.example", srvURL.Host})
	_, err = l.Load(ctx, "d1", "http://minio.internal:9000/bucket/shot.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = l.Load(ctx, "d1", srv.URL+"/elsewhere")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, 1, fetched)
}
