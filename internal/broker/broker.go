// Package broker is the thin contract over the external service broker: it
// invokes an action by name with parameters and surfaces the broker's typed
// error kinds without interpreting the result. See
// nexus-broker/internal/handlers (the sibling module this gateway fronts)
// for the shape of errors a real broker emits.
package broker

import (
	"context"
	"fmt"

	"github.com/Prescott-Data/nexus-framework/nexus-gateway/internal/action"
)

// Broker is the collaborator the Request Resolver invokes. Implementations
// must be safe for concurrent use; a single Broker is shared across all
// in-flight requests.
type Broker interface {
	Invoke(ctx context.Context, name string, params map[string]any) (action.Result, error)
}

// Error is the typed error a Broker returns. It carries enough information
// for the gateway to pick an HTTP status without understanding the broker's
// internal failure taxonomy.
type Error struct {
	Name    string
	Message string
	// Code is the broker-assigned status, when the broker supplies one.
	// Zero means "unset" — the adapter's caller should choose a default.
	Code int
	Data any
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return e.Message
}

// ServiceNotFound builds the error the spec requires when an action does
// not exist or was not whitelisted: HTTP 501, name ServiceNotFoundError.
func ServiceNotFound(name string) *Error {
	return &Error{
		Name:    "ServiceNotFoundError",
		Message: fmt.Sprintf("Action '%s' is not available!", name),
		Code:    501,
	}
}

// Validation builds a 422 ValidationError, the kind a broker raises when
// action parameters fail its own validation.
func Validation(message string, data any) *Error {
	return &Error{Name: "ValidationError", Message: message, Code: 422, Data: data}
}

// Internal builds a generic 500 ServiceError for failures that carry no
// broker-assigned code.
func Internal(message string) *Error {
	return &Error{Name: "ServiceError", Message: message, Code: 500}
}
