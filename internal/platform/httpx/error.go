package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

// Error is the storefront's JSON error envelope. Code is a stable snake_case identifier that
// clients switch on; Message is human readable.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// NewError builds an Error, defaulting Status to 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: singleLine(code, 80), Message: singleLine(message, 512), Status: status}
}

// WithDetails returns a copy of e carrying extra top-level fields, such as the product and
// available units of a rejected cart request.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// WriteError renders err, adding request_id and trace_id when ctx carries them. Details never
// override the envelope keys.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	body := make(map[string]any, len(err.Details)+5)
	for k, v := range err.Details {
		body[k] = v
	}
	body["error"] = err.Code
	body["message"] = err.Message
	body["status"] = err.Status
	if id := singleLine(middleware.GetReqID(ctx), 80); id != "" {
		body["request_id"] = id
	}
	if id := singleLine(requestctx.TraceID(ctx), 64); id != "" {
		body["trace_id"] = id
	}
	WriteJSON(w, err.Status, body)
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func singleLine(value string, limit int) string {
	value = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
