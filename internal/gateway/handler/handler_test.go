package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"annotator/internal/annotate/catalog"
	"annotator/internal/annotate/projector"
	"annotator/internal/annotate/session"
	cachescreenshot "annotator/internal/cache/screenshot"
	"annotator/internal/gateway/handler"
	"annotator/internal/gateway/notify"
	shotrepo "annotator/internal/gateway/repository/screenshot"
	"annotator/internal/gateway/repository/wizard"
	"annotator/internal/gateway/server"
)

type stack struct {
	srv     *httptest.Server
	hub     *notify.Hub
	configs *wizard.MemoryStore
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := zap.NewNop()
	shots := cachescreenshot.NewCachedStore(shotrepo.NewMemoryStore(), cachescreenshot.DefaultCacheConfig())
	configs := wizard.NewMemoryStore()
	require.NoError(t, configs.Put(context.Background(), "d1", projector.Config{
		"A": {"checkout": {"Text": map[string]any{"name": "Text"}}},
		"B": {"login": {}},
	}))
	demo, err := catalog.NewDemoSource("", log)
	require.NoError(t, err)

	hub := notify.NewHub()
	sessions, err := session.NewManager(session.Deps{
		Images:     shotrepo.NewLoader(shots, time.Second, nil),
		Catalog:    demo,
		Configs:    configs,
		Notifier:   hub,
		Log:        log,
		IsNotFound: func(err error) bool { return errors.Is(err, wizard.ErrNotFound) },
	}, 8)
	require.NoError(t, err)

	mux := server.NewMux(server.Handlers{
		Sessions: handler.NewSessionHandler(sessions, log),
		Drafts:   handler.NewDraftHandler(shots, configs, log),
		Notices:  handler.NewNoticeHandler(sessions, hub, log),
		Health:   handler.NewHealthHandler(shots, nil, sessions.Len),
	}, log)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &stack{srv: srv, hub: hub, configs: configs}
}

func (s *stack) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var v any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
		if m, ok := v.(map[string]any); ok {
			out = m
		}
	}
	return resp.StatusCode, out
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func openSession(t *testing.T, s *stack) string {
	t.Helper()
	code, _ := s.do(t, http.MethodPut, "/v1/drafts/d1/screenshots/home.png", pngOf(t, 800, 600))
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodPost, "/v1/sessions", map[string]any{
		"draft_id": "d1", "variant": "A", "activity": "checkout", "screenshot": "home.png",
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["id"].(string)
}

func TestAnnotateFlowOverHTTP(t *testing.T) {
	s := newStack(t)
	id := openSession(t, s)
	base := "/v1/sessions/" + id

	code, _ := s.do(t, http.MethodPost, base+"/viewport", map[string]int{"width": 400, "height": 300})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, base+"/pointer/down", map[string]int{"x": 100, "y": 150})
	require.Equal(t, http.StatusOK, code)
	code, body := s.do(t, http.MethodPost, base+"/pointer/up", map[string]int{"x": 50, "y": 50})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"x1": 100.0, "y1": 100.0, "x2": 200.0, "y2": 300.0}, body["region"])

	code, body = s.do(t, http.MethodPost, base+"/regions", map[string]any{
		"component_key": "button", "function_id": 1,
		"params": map[string]string{"Insert text": "hello"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []any{"param_required:Random UI"}, body["flags"])

	code, _ = s.do(t, http.MethodPost, base+"/regions", map[string]any{
		"component_key": "button", "function_id": 1,
		"params": map[string]string{"Insert text": "hello", "Random UI": "3"},
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = s.do(t, http.MethodDelete, base+"/regions/button/3", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_index", body["code"])

	code, body = s.do(t, http.MethodGet, base+"/functions/1/params", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["params"], 2)

	code, body = s.do(t, http.MethodGet, base+"/dependencies", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"login"}, body["B"])

	code, body = s.do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["merged"])

	code, body = s.do(t, http.MethodGet, "/v1/drafts/d1/config", nil)
	require.Equal(t, http.StatusOK, code)
	checkout := body["A"].(map[string]any)["checkout"].(map[string]any)
	assert.Contains(t, checkout, "Text")
	assert.Contains(t, checkout, "Screenshot")

	code, body = s.do(t, http.MethodPost, base+"/pointer/down", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "failed_precondition", body["code"])
}

func TestHTTPErrorMapping(t *testing.T) {
	s := newStack(t)

	code, body := s.do(t, http.MethodGet, "/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["code"])

	code, _ = s.do(t, http.MethodPost, "/v1/sessions", map[string]any{"draft_id": "d1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/v1/sessions", map[string]any{
		"draft_id": "d1", "variant": "A", "activity": "checkout", "screenshot": "absent.png",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/v1/drafts/d1/screenshots/bad.png", []byte("not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, code)

	code, _ = s.do(t, http.MethodGet, "/v1/drafts/nobody/config", nil)
	assert.Equal(t, http.StatusNotFound, code)

	id := openSession(t, s)
	code, body = s.do(t, http.MethodPost, "/v1/sessions/"+id+"/pointer/up", map[string]int{"x": 1, "y": 1})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(t, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
}

func TestNoticesWebsocket(t *testing.T) {
	s := newStack(t)
	id := openSession(t, s)

	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/v1/sessions/" + id + "/notices"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "subscribed", msg["type"])

	s.hub.Notify(context.Background(), notify.Notice{Level: notify.LevelSuccess, Message: "saved", SessionID: id})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "notice", msg["type"])
	assert.Equal(t, "saved", msg["notice"].(map[string]any)["message"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg["type"])
}
