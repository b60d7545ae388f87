package errors

import "net/http"

// ErrTaskNotFound covers both a missing local task and a webhook that
// references an external id unknown to the store.
var ErrTaskNotFound = &Exception{
	Message:    "task not found",
	StatusCode: http.StatusNotFound,
}
