package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"annotator/internal/annotate/catalog"
	"annotator/internal/annotate/geometry"
	"annotator/internal/annotate/session"
)

type SessionHandler struct {
	sessions *session.Manager
	log      *zap.Logger
}

func NewSessionHandler(sessions *session.Manager, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, log: log}
}

type viewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pointerRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeError(w, h.log, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var in session.Params
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	s, err := h.sessions.Open(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(strings.TrimSpace(r.PathValue("id"))); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var in viewportRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	s.Resize(geometry.Size{Width: in.Width, Height: in.Height})
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) HandlePointerDown(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var in pointerRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	p, err := s.PointerDown(in.X, in.Y)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"anchor": p})
}

func (h *SessionHandler) HandlePointerUp(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var in pointerRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	rect, err := s.PointerUp(in.X, in.Y)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": rect})
}

func (h *SessionHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := s.Discard(); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var in catalog.Draft
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	region, err := s.Commit(in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"region": region, "view": s.View()})
}

func (h *SessionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, h.log, errBadRequestf("index must be an integer"))
		return
	}
	if err := s.Remove(r.PathValue("key"), index); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Catalog())
}

func (h *SessionHandler) HandleDependencies(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Dependencies())
}

func (h *SessionHandler) HandleParams(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	fid, err := strconv.Atoi(r.PathValue("fid"))
	if err != nil {
		writeError(w, h.log, errBadRequestf("function id must be an integer"))
		return
	}
	params, err := s.FunctionParams(fid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"function_id": fid, "params": params})
}

func (h *SessionHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	res, err := s.Advance(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
