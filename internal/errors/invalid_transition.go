package errors

import "net/http"

var ErrInvalidTransition = &Exception{
	Message:    "status transition not allowed",
	StatusCode: http.StatusConflict,
}
