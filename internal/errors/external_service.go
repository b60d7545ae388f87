package errors

import "net/http"

// ErrExternalService marks a tracker call that failed with a non-success
// response, a timeout, or an unreachable host. Retrying is the caller's
// decision; the sync engine never retries on its own.
var ErrExternalService = &Exception{
	Message:    "external tracker request failed",
	StatusCode: http.StatusBadGateway,
}
