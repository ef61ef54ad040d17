// Package bodyparser decodes the request body per content-type, gated by
// the per-route parser configuration compiled into a routetable.Mount
// (spec.md §4.3).
package bodyparser

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/broker"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/metrics"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/routetable"
)

// Parse reads r.Body (capped at maxBody bytes) and, depending on settings
// and the request's Content-Type, returns a decoded parameter map. A nil
// map with a nil error means "nothing to parse" (parsers disabled, or the
// enabled parser doesn't recognize this content-type) — the spec requires
// invocation to proceed with query params only in that case, not an error.
func Parse(r *http.Request, settings routetable.ParserSettings, maxBody int64) (map[string]any, error) {
	if settings.Disabled || r.Body == nil || r.ContentLength == 0 {
		return nil, nil
	}

	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, broker.Internal(fmt.Sprintf("failed to read request body: %v", err))
	}

	switch {
	case contentType == "application/json" && settings.JSONEnabled:
		if len(raw) == 0 {
			return nil, nil
		}
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			metrics.ParserFailuresTotal.WithLabelValues(contentType).Inc()
			return nil, invalidBodyError(raw, err)
		}
		return parsed, nil

	case contentType == "application/x-www-form-urlencoded" && settings.URLEncodedEnabled:
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			metrics.ParserFailuresTotal.WithLabelValues(contentType).Inc()
			return nil, invalidBodyError(raw, err)
		}
		parsed := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) > 0 {
				parsed[k] = v[0]
			}
		}
		return parsed, nil

	default:
		// Parser enabled for a different content-type, or not enabled at
		// all: leave parsedBody nil and let the broker validate params
		// derived from the query string alone (spec.md §4.3).
		return nil, nil
	}
}

// invalidBodyError builds the InvalidRequestBodyError the spec requires
// (§4.3): HTTP 400, with the offending body and parser message attached.
func invalidBodyError(body []byte, parseErr error) *broker.Error {
	return &broker.Error{
		Name:    "InvalidRequestBodyError",
		Message: "Invalid request body",
		Code:    400,
		Data: map[string]any{
			"body":  string(body),
			"error": parseErr.Error(),
		},
	}
}
