package errors

import "net/http"

var ErrInvalidSignature = &Exception{
	Message:    "invalid webhook signature",
	StatusCode: http.StatusUnauthorized,
}
