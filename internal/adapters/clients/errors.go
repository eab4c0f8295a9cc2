// Package clients provides the instrumented HTTP client used to reach the
// remote quote source.
package clients

import "errors"

// Transport-level failures. The acl package turns these into domain errors.
var (
	// ErrCircuitOpen means the breaker is blocking calls to the downstream.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
