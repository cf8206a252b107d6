// Package handler exposes annotation sessions and draft resources as JSON
// over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"annotator/internal/annotate"
	"annotator/internal/annotate/capture"
	"annotator/internal/annotate/catalog"
	"annotator/internal/annotate/registry"
	"annotator/internal/annotate/session"
	"annotator/internal/gateway/repository/screenshot"
	"annotator/internal/gateway/repository/wizard"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Flags   []string `json:"flags,omitempty"`
}

func errBadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid json body: %v", errBadRequest, err)
	}
	return nil
}

// writeError maps the error taxonomy to HTTP statuses. Unclassified errors
// are logged and answered with a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *annotate.ValidationError
	status, body := http.StatusInternalServerError, errorBody{Code: "internal", Message: err.Error()}
	switch {
	case errors.As(err, &verr):
		status, body = http.StatusUnprocessableEntity, errorBody{Code: "validation_failed", Message: err.Error(), Flags: verr.Flags}
	case errors.Is(err, registry.ErrInvalidIndex):
		log.Error("invalid registry index", zap.Error(err))
		status, body.Code = http.StatusBadRequest, "invalid_index"
	case errors.Is(err, errBadRequest), errors.Is(err, session.ErrInvalidParam),
		errors.Is(err, catalog.ErrUnknownFunction), errors.Is(err, catalog.ErrUnknownParam),
		errors.Is(err, screenshot.ErrInvalidKey), errors.Is(err, wizard.ErrInvalidID):
		status, body.Code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, session.ErrNotFound), errors.Is(err, screenshot.ErrNotFound), errors.Is(err, wizard.ErrNotFound):
		status, body.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, annotate.ErrNetwork):
		log.Warn("upstream failure", zap.Error(err))
		status, body = http.StatusBadGateway, errorBody{Code: "network_failure", Message: "upstream service unavailable"}
	case errors.Is(err, session.ErrNoMetrics), errors.Is(err, session.ErrNotMounted),
		errors.Is(err, session.ErrFinished), errors.Is(err, session.ErrClosed),
		errors.Is(err, capture.ErrNotCapturing), errors.Is(err, capture.ErrNoRegion):
		status, body.Code = http.StatusConflict, "failed_precondition"
	default:
		log.Error("request failed", zap.Error(err))
		body.Message = http.StatusText(http.StatusInternalServerError)
	}
	writeJSON(w, status, body)
}
