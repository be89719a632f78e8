package errors

import "net/http"

var ErrDuplicateURL = &Exception{
	Message:    "url already registered",
	StatusCode: http.StatusConflict,
}
