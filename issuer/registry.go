package issuer

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/tokenkit/go-jwt-manager/logging"
)

// Registry routes key lookups to the first source, in insertion order,
// that matches the issuer URL.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	logger  logging.Logger
}

// NewRegistry returns a registry holding sources in the given order.
// Duplicates are dropped.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{logger: logging.Noop}
	r.Add(sources...)
	return r
}

// SetLogger sets the logger used for debug output.
func (r *Registry) SetLogger(l logging.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logging.OrNoop(l)
}

// Add appends sources that are not already registered.
func (r *Registry) Add(sources ...Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range sources {
		if s == nil || slices.Contains(r.sources, s) {
			continue
		}
		r.logger.Debugf("adding issuer source: %s", s.Kind())
		r.sources = append(r.sources, s)
	}
}

// Delete removes s and reports whether it was registered.
func (r *Registry) Delete(s Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.sources, s)
	if i < 0 {
		return false
	}
	r.logger.Debugf("deleting issuer source: %s", s.Kind())
	r.sources = slices.Delete(r.sources, i, i+1)
	return true
}

// Sources returns the registered sources in order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sources)
}

// IssuerSolverCount returns how many sources match issuerURL.
func (r *Registry) IssuerSolverCount(issuerURL string) int {
	return len(r.matching(issuerURL))
}

// Get asks the first matching source for keyID. Later sources are not
// consulted even when the first one does not have the key. ok is false
// when no source matches or the key is unknown.
func (r *Registry) Get(ctx context.Context, issuerURL, keyID string) (Key, bool, error) {
	matching := r.matching(issuerURL)

	r.mu.RLock()
	logger := r.logger
	size := len(r.sources)
	r.mu.RUnlock()

	logger.Debugf("getting issuer: %s %q size: %d", issuerURL, keyID, size)
	if len(matching) == 0 {
		logger.Debugf("issuer not found: %s", issuerURL)
		return Key{}, false, nil
	}

	src := matching[0]
	material, ok, err := src.Get(ctx, issuerURL, keyID)
	if err != nil || !ok {
		return Key{}, false, err
	}
	return Key{Kind: src.Kind(), Material: material}, true, nil
}

// ListKeyIDs lists the key ids held by the first matching source.
func (r *Registry) ListKeyIDs(ctx context.Context, issuerURL string) ([]string, error) {
	matching := r.matching(issuerURL)
	if len(matching) == 0 {
		return nil, mismatch(issuerURL)
	}
	return matching[0].ListKeyIDs(ctx, issuerURL)
}

// Export merges the snapshots of every source. When two sources hold the
// same issuer the earlier one wins.
func (r *Registry) Export() Snapshot {
	sources := r.Sources()

	out := make(Snapshot)
	for i := len(sources) - 1; i >= 0; i-- {
		out.merge(sources[i].Export())
	}
	return out
}

// Import offers snapshot to every source.
func (r *Registry) Import(snapshot Snapshot) error {
	var errs []error
	for _, s := range r.Sources() {
		if err := s.Import(snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) matching(issuerURL string) []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Source
	for _, s := range r.sources {
		if s.Match(issuerURL) {
			out = append(out, s)
		}
	}
	return out
}
