package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/action"
	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/metrics"
)

// wireRequest is the gateway's HTTP+JSON envelope for invoking a remote
// action. The broker's own wire protocol is out of scope for this gateway
// (see spec.md §1, "Out of scope: the service broker itself"); this shape
// is the gateway side of that boundary.
type wireRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// wireResponse mirrors the envelope a broker replies with: either Result is
// populated, or Error is, never both.
type wireResponse struct {
	Result any         `json:"result"`
	Error  *wireError  `json:"error,omitempty"`
	Buffer *wireBuffer `json:"buffer,omitempty"`
}

type wireError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
}

// wireBuffer lets the broker signal "this result is raw bytes" without
// forcing every byte-producing action through base64-in-JSON; when present
// it wins over Result.
type wireBuffer struct {
	ContentType string `json:"contentType"`
}

// RestyClient is the Broker Client Adapter implementation used outside of
// tests: it calls an out-of-process broker over HTTP, following the
// resty-based HTTP client convention used for internal service calls
// elsewhere in this family (see dromos-oauth-gateway's go.mod, which
// carries go-resty/resty/v2 for the same purpose).
type RestyClient struct {
	http    *resty.Client
	baseURL string
}

// NewRestyClient builds a broker adapter bound to baseURL. httpClient may
// be nil, in which case resty's own default transport is used.
func NewRestyClient(baseURL string, httpClient *http.Client) *RestyClient {
	r := resty.New()
	if httpClient != nil {
		r = resty.NewWithClient(httpClient)
	}
	r.SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(100 * time.Millisecond)
	return &RestyClient{http: r, baseURL: baseURL}
}

// Invoke implements Broker. The response body is decoded manually (rather
// than via resty's SetResult/SetError helpers) because the wire envelope
// carries both success and error shapes in the same JSON document
// regardless of HTTP status, and resty only auto-decodes into SetResult
// for 2xx responses.
func (c *RestyClient) Invoke(ctx context.Context, name string, params map[string]any) (action.Result, error) {
	start := time.Now()
	var invokeErr error
	defer func() { metrics.ObserveBrokerInvocation(name, start, invokeErr) }()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wireRequest{Action: name, Params: params}).
		Post("/invoke")
	if err != nil {
		invokeErr = Internal(fmt.Sprintf("broker call failed: %v", err))
		return action.Result{}, invokeErr
	}

	var out wireResponse
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			invokeErr = Internal(fmt.Sprintf("broker returned unparseable response: %v", err))
			return action.Result{}, invokeErr
		}
	}

	if out.Error != nil {
		invokeErr = &Error{
			Name:    out.Error.Name,
			Message: out.Error.Message,
			Code:    out.Error.Code,
			Data:    out.Error.Data,
		}
		return action.Result{}, invokeErr
	}
	if resp.StatusCode() >= 400 {
		invokeErr = Internal(fmt.Sprintf("broker returned status %d", resp.StatusCode()))
		return action.Result{}, invokeErr
	}

	if out.Buffer != nil {
		// resty has already buffered the full response body in memory, so
		// this is not a true lazy stream from the wire — it satisfies the
		// ByteStream materialization path without holding a second copy
		// of the body beyond what resty already retains.
		return action.ByteStream(io.NopCloser(bytes.NewReader(resp.Body()))), nil
	}

	return classify(out.Result), nil
}

// classify turns a decoded JSON value into the Result variant the
// materializer expects. JSON decoding already collapses most of the
// distinctions the spec's Action Result variant names (Text vs Number vs
// Boolean vs StructuredObject), so this is a straightforward type switch.
func classify(v any) action.Result {
	switch t := v.(type) {
	case nil:
		return action.Null()
	case string:
		return action.Text(t)
	case float64:
		return action.Number(t)
	case bool:
		return action.Boolean(t)
	default:
		return action.Object(v)
	}
}
