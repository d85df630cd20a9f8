package jwtmanager

import (
	"errors"
	"fmt"
)

var (
	// ErrJWTMissing is returned by the middleware when a request carries no
	// token.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is matched by every error caused by the token itself, as
	// opposed to configuration or transport failures.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrHeaderType is returned for an authorization header whose scheme is
	// not Bearer.
	ErrHeaderType = errors.New("token header: wrong authentication header type")

	// ErrMalformedToken is returned when the token cannot be decoded.
	ErrMalformedToken = errors.New("token: malformed")

	// ErrHeaderField is returned when the token header has no kid.
	ErrHeaderField = errors.New("token header: missing kid parameter")

	// ErrBodyField is returned when the token body has no iss.
	ErrBodyField = errors.New("token body: missing iss parameter")

	// ErrKeyNotFound is returned when no key material is known for the
	// token's issuer and key id.
	ErrKeyNotFound = errors.New("no key found for token")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from a
	// context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// SignatureError is returned when signature or claim validation fails. Err
// is the error reported by the JWT library.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return "token signature: " + e.Err.Error()
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

// invalidError marks details as ErrJWTInvalid while keeping the wrapped
// error reachable through errors.Is and errors.As.
type invalidError struct {
	details error
}

// Is allows the error to support equality to ErrJWTInvalid.
func (e invalidError) Is(target error) bool {
	return target == ErrJWTInvalid
}

func (e invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTInvalid, e.details)
}

func (e invalidError) Unwrap() error {
	return e.details
}

func invalid(err error) error {
	return invalidError{details: err}
}
