package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/walletcore/internal/errs"
)

type errorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind"`
	Field         string `json:"field,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	cid := CorrelationIDFromContext(r.Context())
	if cid != "" {
		w.Header().Set(CorrelationIDHeader, cid)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Unknown errors stay
// opaque 500s.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case errs.KindInvalidParams:
		status = http.StatusBadRequest
	case errs.KindResolutionRejected:
		status = http.StatusForbidden
	case errs.KindTransientNetwork:
		status = http.StatusServiceUnavailable
	case errs.KindTerminalProtocol:
		status = http.StatusConflict
	}

	body := errorResponse{
		Error:         err.Error(),
		Kind:          string(kind),
		CorrelationID: CorrelationIDFromContext(r.Context()),
	}
	var e *errs.Error
	if errors.As(err, &e) {
		body.Field = e.Field
	}
	writeJSON(w, r, status, body)
}
