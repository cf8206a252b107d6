package server

import (
	"net/http"

	"go.uber.org/zap"

	"annotator/internal/gateway/handler"
	"annotator/internal/gateway/middleware"
)

type Handlers struct {
	Sessions *handler.SessionHandler
	Drafts   *handler.DraftHandler
	Notices  *handler.NoticeHandler
	Health   *handler.HealthHandler

	// CORSOrigins restricts cross-origin callers; empty allows any origin.
	CORSOrigins []string
}

func NewMux(h Handlers, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Sessions
	mux.HandleFunc("POST /v1/sessions", h.Sessions.HandleOpen)
	mux.HandleFunc("GET /v1/sessions/{id}", h.Sessions.HandleGet)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.Sessions.HandleClose)
	mux.HandleFunc("POST /v1/sessions/{id}/viewport", h.Sessions.HandleViewport)
	mux.HandleFunc("POST /v1/sessions/{id}/pointer/down", h.Sessions.HandlePointerDown)
	mux.HandleFunc("POST /v1/sessions/{id}/pointer/up", h.Sessions.HandlePointerUp)
	mux.HandleFunc("POST /v1/sessions/{id}/discard", h.Sessions.HandleDiscard)
	mux.HandleFunc("POST /v1/sessions/{id}/regions", h.Sessions.HandleCommit)
	mux.HandleFunc("DELETE /v1/sessions/{id}/regions/{key}/{index}", h.Sessions.HandleRemove)
	mux.HandleFunc("GET /v1/sessions/{id}/catalog", h.Sessions.HandleCatalog)
	mux.HandleFunc("GET /v1/sessions/{id}/dependencies", h.Sessions.HandleDependencies)
	mux.HandleFunc("GET /v1/sessions/{id}/functions/{fid}/params", h.Sessions.HandleParams)
	mux.HandleFunc("POST /v1/sessions/{id}/advance", h.Sessions.HandleAdvance)
	mux.HandleFunc("GET /v1/sessions/{id}/notices", h.Notices.HandleNoticesWS)

	// Drafts
	mux.HandleFunc("GET /v1/drafts/{draft}/screenshots", h.Drafts.HandleListScreenshots)
	mux.HandleFunc("PUT /v1/drafts/{draft}/screenshots/{name}", h.Drafts.HandlePutScreenshot)
	mux.HandleFunc("GET /v1/drafts/{draft}/screenshots/{name}", h.Drafts.HandleGetScreenshot)
	mux.HandleFunc("GET /v1/drafts/{draft}/config", h.Drafts.HandleGetConfig)
	mux.HandleFunc("PUT /v1/drafts/{draft}/config", h.Drafts.HandlePutConfig)

	// Debug
	mux.HandleFunc("GET /healthz", h.Health.HandleHealth)
	mux.HandleFunc("GET /debug/cache", h.Health.HandleCacheStats)

	// Middleware
	return middleware.CORS(h.CORSOrigins)(middleware.AccessLog(log)(mux))
}
