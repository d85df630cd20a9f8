package issuer

import "context"

// Source resolves key material for the issuers it matches.
//
// Every method other than Kind, Match and Export fails with
// ErrIssuerMismatch when issuerURL is not matched.
type Source interface {
	Kind() Kind
	// Match reports whether the source answers for issuerURL. It has no
	// side effects.
	Match(issuerURL string) bool
	Add(issuerURL, keyID string, material []byte) error
	// Get returns the material for keyID. A missing key is reported with
	// ok == false and a nil error.
	Get(ctx context.Context, issuerURL, keyID string) (material []byte, ok bool, err error)
	// ListKeyIDs returns the known key ids in insertion order. It returns an
	// empty slice for a matched issuer without keys.
	ListKeyIDs(ctx context.Context, issuerURL string) ([]string, error)
	Import(snapshot Snapshot) error
	Export() Snapshot
}
