package errors

import (
	"errors"
	"net/http"
)

// Exception is an error with a fixed HTTP status. Sync operations wrap the
// package sentinels with fmt.Errorf("...: %w", ...) so callers can test
// with errors.Is while the HTTP layer recovers the status here.
type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
