// Package httperr renders the gateway's JSON error body shape (spec.md
// §6, "Error body shape") and maps broker/internal errors onto HTTP
// status codes (spec.md §7).
package httperr

import (
	"encoding/json"
	"net/http"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
)

// Body is the wire shape of every error response the gateway emits.
type Body struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Write renders err as a JSON error body with the Request-Id header set,
// choosing the HTTP status per spec.md §7: a broker error's own Code wins
// when it falls in [400, 599], otherwise 500.
func Write(w http.ResponseWriter, requestID string, err error) {
	status, body := classify(err)
	w.Header().Set("Request-Id", requestID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func classify(err error) (int, Body) {
	if be, ok := err.(*broker.Error); ok {
		status := http.StatusInternalServerError
		if be.Code >= 400 && be.Code <= 599 {
			status = be.Code
		}
		name := be.Name
		if name == "" {
			name = "ServiceError"
		}
		return status, Body{Code: status, Name: name, Message: be.Message, Data: be.Data}
	}
	return http.StatusInternalServerError, Body{
		Code:    http.StatusInternalServerError,
		Name:    "InternalError",
		Message: err.Error(),
	}
}

// NotFound writes the plain-text 404 the spec requires when no API route
// and no asset matched (spec.md §6, §8).
func NotFound(w http.ResponseWriter, requestID string) {
	w.Header().Set("Request-Id", requestID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}

// Timeout writes the 504 RequestTimeout body the spec requires when the
// per-request deadline elapses (spec.md §5, §7).
func Timeout(w http.ResponseWriter, requestID string) {
	Write(w, requestID, &broker.Error{Name: "RequestTimeout", Message: "Request timed out", Code: http.StatusGatewayTimeout})
}
