package jwtmanager

import (
	"errors"
	"net/http"
)

// ErrorHandler is a handler which is called when an error occurs in the
// Middleware. Among some general errors, this handler also determines the
// response of the Middleware when a token is not found or is invalid. The
// err can be checked to be ErrJWTMissing or ErrJWTInvalid for specific cases.
// The default handler will return a status code of 400 for ErrJWTMissing,
// 401 for ErrJWTInvalid, and 500 for all other errors, such as a failed key
// fetch.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. If an error handler is not provided via the WithErrorHandler
// option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	status, body := ErrorResponse(err)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ErrorResponse maps err to the status code and JSON body used by
// DefaultErrorHandler. Transport adapters reuse it.
func ErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrJWTMissing):
		return http.StatusBadRequest, `{"message":"JWT is missing."}`
	case errors.Is(err, ErrJWTInvalid):
		return http.StatusUnauthorized, `{"message":"JWT is invalid."}`
	default:
		return http.StatusInternalServerError, `{"message":"Something went wrong while checking the JWT."}`
	}
}
