package errors

import "net/http"

var ErrMappingNotFound = &Exception{
	Message:    "no board mapping registered for organization",
	StatusCode: http.StatusConflict,
}
