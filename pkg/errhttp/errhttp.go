// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/ghuser/orderflow/pkg/httpx"
	orderdomain "github.com/ghuser/orderflow/services/order/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors; 5xx bodies
// carry only the status text so store internals never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	httpx.JSONError(w, status, msg)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, orderdomain.ErrDeliveryFailed):
		return http.StatusInternalServerError // 500, retryable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable // 503, handler deadline hit
	default:
		return http.StatusInternalServerError // 500
	}
}
