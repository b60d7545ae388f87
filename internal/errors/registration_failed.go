package errors

import "net/http"

var ErrRegistrationFailed = &Exception{
	Message:    "webhook subscription registration failed",
	StatusCode: http.StatusBadGateway,
}
