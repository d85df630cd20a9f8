package issuer

import (
	"errors"
	"fmt"

	"github.com/tokenkit/go-jwt-manager/internal/jwkpem"
)

var (
	// ErrIssuerMismatch is returned when a source is asked about an issuer
	// URL it does not match.
	ErrIssuerMismatch = errors.New("issuer does not match source")

	// ErrKeyFormat is returned when published key material cannot be
	// converted.
	ErrKeyFormat = jwkpem.ErrKeyFormat
)

// KeyFetchError is returned when the discovery document or key set of an
// issuer cannot be fetched.
type KeyFetchError struct {
	URL string
	// StatusCode is the HTTP status of the failed response, or 0 for
	// transport and decoding failures.
	StatusCode int
	Err        error
}

func (e *KeyFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching keys for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching keys for %s: %v", e.URL, e.Err)
}

func (e *KeyFetchError) Unwrap() error {
	return e.Err
}

func mismatch(issuerURL string) error {
	return fmt.Errorf("%w: %s", ErrIssuerMismatch, issuerURL)
}
