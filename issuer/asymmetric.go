package issuer

import (
	"context"
	"fmt"
	"slices"

	"github.com/tokenkit/go-jwt-manager/logging"
)

// Asymmetric holds PEM-encoded public keys for the issuers matched by its
// rules.
type Asymmetric struct {
	rules  []Rule
	store  *store
	logger logging.Logger
}

var _ Source = (*Asymmetric)(nil)

// NewAsymmetric returns a source for the issuers matched by any of rules.
func NewAsymmetric(rules []Rule, opts ...Option) (*Asymmetric, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}
	return newAsymmetric(rules, o), nil
}

func newAsymmetric(rules []Rule, o *options) *Asymmetric {
	a := &Asymmetric{
		rules:  slices.Clone(rules),
		store:  newStore(KindAsymmetric, o.now),
		logger: o.logger,
	}
	a.logger.Infof("asymmetric source created for %d issuer rules", len(rules))
	return a
}

func (a *Asymmetric) Kind() Kind { return KindAsymmetric }

func (a *Asymmetric) Match(issuerURL string) bool {
	return matchAny(a.rules, issuerURL)
}

func (a *Asymmetric) Add(issuerURL, keyID string, material []byte) error {
	a.logger.Debugf("asymmetric source add %s %s", issuerURL, keyID)
	if !a.Match(issuerURL) {
		return mismatch(issuerURL)
	}
	a.store.put(issuerURL, keyID, material)
	return nil
}

func (a *Asymmetric) Get(_ context.Context, issuerURL, keyID string) ([]byte, bool, error) {
	a.logger.Debugf("asymmetric source get %s %s", issuerURL, keyID)
	if !a.Match(issuerURL) {
		return nil, false, mismatch(issuerURL)
	}
	material, ok := a.store.get(issuerURL, keyID)
	return material, ok, nil
}

func (a *Asymmetric) ListKeyIDs(_ context.Context, issuerURL string) ([]string, error) {
	if !a.Match(issuerURL) {
		return nil, mismatch(issuerURL)
	}
	return a.store.keyIDs(issuerURL), nil
}

// Import replaces the keys of every asymmetric snapshot entry whose issuer
// this source matches. Other entries are ignored.
func (a *Asymmetric) Import(snapshot Snapshot) error {
	for issuerURL, entry := range snapshot {
		if entry.Type != KindAsymmetric || !a.Match(issuerURL) {
			continue
		}
		a.store.load(issuerURL, entry)
	}
	return nil
}

func (a *Asymmetric) Export() Snapshot {
	return a.store.export(true)
}

func (a *Asymmetric) String() string {
	return fmt.Sprintf("asymmetric source: %d keys", a.store.count())
}
