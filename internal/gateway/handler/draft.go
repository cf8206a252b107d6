package handler

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"annotator/internal/annotate/projector"
	"annotator/internal/gateway/repository/screenshot"
	"annotator/internal/gateway/repository/wizard"
)

const maxScreenshotBytes = 32 << 20

// DraftHandler serves the per-draft screenshots and wizard configuration.
type DraftHandler struct {
	shots   screenshot.Store
	configs wizard.Store
	log     *zap.Logger
}

func NewDraftHandler(shots screenshot.Store, configs wizard.Store, log *zap.Logger) *DraftHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftHandler{shots: shots, configs: configs, log: log}
}

func (h *DraftHandler) HandlePutScreenshot(w http.ResponseWriter, r *http.Request) {
	draftID, name := r.PathValue("draft"), r.PathValue("name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScreenshotBytes+1))
	if err != nil {
		writeError(w, h.log, errBadRequestf("read body: %v", err))
		return
	}
	if len(body) > maxScreenshotBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Code: "too_large", Message: "screenshot exceeds 32MiB"})
		return
	}
	size, format, err := screenshot.Probe(body)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Code: "unsupported_image", Message: err.Error()})
		return
	}
	if err := h.shots.Put(r.Context(), draftID, name, body); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.log.Info("screenshot stored", zap.String("draft_id", draftID), zap.String("name", name),
		zap.String("format", format), zap.Int("bytes", len(body)))
	writeJSON(w, http.StatusCreated, screenshot.Image{Ref: strings.TrimLeft(name, "/"), Size: size, Format: format})
}

func (h *DraftHandler) HandleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	body, err := h.shots.Get(r.Context(), r.PathValue("draft"), r.PathValue("name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(body))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(body)
}

func (h *DraftHandler) HandleListScreenshots(w http.ResponseWriter, r *http.Request) {
	names, err := h.shots.List(r.Context(), r.PathValue("draft"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft_id": r.PathValue("draft"), "names": names})
}

func (h *DraftHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Get(r.Context(), r.PathValue("draft"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *DraftHandler) HandlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg projector.Config
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.configs.Put(r.Context(), r.PathValue("draft"), cfg); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
