package issuer

import (
	"context"
	"fmt"
	"slices"
)

// Symmetric holds shared secrets for a fixed set of issuer URLs.
//
// Secrets are never exported: Export reports the issuers with empty key
// maps, and Import ignores its input.
type Symmetric struct {
	urls  []string
	store *store
}

var _ Source = (*Symmetric)(nil)

// NewSymmetric returns a source for exactly the given issuer URLs.
func NewSymmetric(issuerURLs []string, opts ...Option) (*Symmetric, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}

	s := &Symmetric{urls: slices.Clone(issuerURLs), store: newStore(KindSymmetric, o.now)}
	for _, u := range s.urls {
		s.store.ensure(u)
	}
	return s, nil
}

func (s *Symmetric) Kind() Kind { return KindSymmetric }

func (s *Symmetric) Match(issuerURL string) bool {
	return slices.Contains(s.urls, issuerURL)
}

func (s *Symmetric) Add(issuerURL, keyID string, secret []byte) error {
	if !s.Match(issuerURL) {
		return mismatch(issuerURL)
	}
	s.store.put(issuerURL, keyID, secret)
	return nil
}

// AddSecret is Add for a string secret.
func (s *Symmetric) AddSecret(issuerURL, keyID, secret string) error {
	return s.Add(issuerURL, keyID, []byte(secret))
}

func (s *Symmetric) Get(_ context.Context, issuerURL, keyID string) ([]byte, bool, error) {
	if !s.Match(issuerURL) {
		return nil, false, mismatch(issuerURL)
	}
	material, ok := s.store.get(issuerURL, keyID)
	return material, ok, nil
}

func (s *Symmetric) ListKeyIDs(_ context.Context, issuerURL string) ([]string, error) {
	if !s.Match(issuerURL) {
		return nil, mismatch(issuerURL)
	}
	return s.store.keyIDs(issuerURL), nil
}

// Import does nothing; secrets are not persisted.
func (s *Symmetric) Import(Snapshot) error { return nil }

func (s *Symmetric) Export() Snapshot {
	return s.store.export(false)
}

func (s *Symmetric) String() string {
	return fmt.Sprintf("symmetric source: %d keys", s.store.count())
}
