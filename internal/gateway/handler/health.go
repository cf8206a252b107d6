package handler

import (
	"net/http"

	cachescreenshot "annotator/internal/cache/screenshot"
)

type CatalogStats interface {
	Stats() (hits, misses uint64)
}

// HealthHandler reports liveness and cache counters.
type HealthHandler struct {
	shots   *cachescreenshot.CachedStore
	catalog CatalogStats
	open    func() int
}

func NewHealthHandler(shots *cachescreenshot.CachedStore, catalog CatalogStats, open func() int) *HealthHandler {
	return &HealthHandler{shots: shots, catalog: catalog, open: open}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *HealthHandler) HandleCacheStats(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{
		"screenshots": h.shots.Metrics(),
	}
	if h.catalog != nil {
		hits, misses := h.catalog.Stats()
		out["catalog"] = map[string]uint64{"hits": hits, "misses": misses}
	}
	if h.open != nil {
		out["open_sessions"] = h.open()
	}
	writeJSON(w, http.StatusOK, out)
}
