package issuer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/internal/jwkpem"
	"github.com/tokenkit/go-jwt-manager/internal/oidc"
)

// Discovery is an Asymmetric source that fetches missing keys from the
// issuer's published JSON Web Key Set.
//
// On a Get miss the issuer's discovery document is read (from the discovery
// cache when fresh), the key set at its jwks_uri is fetched and converted,
// and the lookup is repeated once. Concurrent loads for the same issuer
// share one fetch.
type Discovery struct {
	*Asymmetric

	client      *http.Client
	docs        DiscoveryCache
	ttl         time.Duration
	now         func() time.Time
	checkIssuer bool
	loads       singleflight.Group
}

var _ Source = (*Discovery)(nil)

// NewDiscovery returns a discovery source for the issuers matched by rules.
func NewDiscovery(rules []Rule, opts ...Option) (*Discovery, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}
	return newDiscovery(rules, o)
}

func newDiscovery(rules []Rule, o *options) (*Discovery, error) {
	docs := o.discoveryCache
	if docs == nil {
		c, err := cache.NewExpireCache[string, DiscoveryDocument](
			cache.WithDefaultTTL(o.discoveryTTL),
			cache.WithClock(o.now),
		)
		if err != nil {
			return nil, fmt.Errorf("creating discovery cache: %w", err)
		}
		docs = c
	}

	return &Discovery{
		Asymmetric:  newAsymmetric(rules, o),
		client:      o.httpClient,
		docs:        docs,
		ttl:         o.discoveryTTL,
		now:         o.now,
		checkIssuer: o.checkIssuer,
	}, nil
}

// Get returns the material for keyID, loading the issuer's key set once if
// the key is not known yet.
func (d *Discovery) Get(ctx context.Context, issuerURL, keyID string) ([]byte, bool, error) {
	if material, ok, err := d.Asymmetric.Get(ctx, issuerURL, keyID); err != nil || ok {
		return material, ok, err
	}

	if err := d.load(ctx, issuerURL); err != nil {
		return nil, false, err
	}

	material, ok := d.store.get(issuerURL, keyID)
	return material, ok, nil
}

// Load fetches the issuer's key set and stores every key in it.
func (d *Discovery) Load(ctx context.Context, issuerURL string) error {
	if !d.Match(issuerURL) {
		return mismatch(issuerURL)
	}
	return d.load(ctx, issuerURL)
}

func (d *Discovery) String() string {
	return fmt.Sprintf("discovery source: %d keys", d.store.count())
}

func (d *Discovery) load(ctx context.Context, issuerURL string) error {
	// The shared fetch outlives a caller that gives up; the HTTP client
	// timeout bounds it.
	ch := d.loads.DoChan(issuerURL, func() (any, error) {
		return nil, d.loadKeys(context.WithoutCancel(ctx), issuerURL)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Discovery) loadKeys(ctx context.Context, issuerURL string) error {
	d.logger.Debugf("discovery source loading keys for %s", issuerURL)

	doc, err := d.configuration(ctx, issuerURL)
	if err != nil {
		return err
	}

	set, err := oidc.FetchJWKS(ctx, d.client, doc.JWKSURI)
	if err != nil {
		return fetchError(doc.JWKSURI, err)
	}

	keys := make(map[string][]byte, len(set.Keys))
	order := make([]string, 0, len(set.Keys))
	for _, k := range set.Keys {
		if k.KeyID == "" {
			d.logger.Warnf("discovery source %s: skipping key without kid", issuerURL)
			continue
		}
		material, err := jwkpem.FromJWK(k)
		if errors.Is(err, jwkpem.ErrUnsupportedKey) {
			d.logger.Warnf("discovery source %s: unknown key type for kid %q", issuerURL, k.KeyID)
			continue
		}
		if err != nil {
			return fmt.Errorf("converting key %q of %s: %w", k.KeyID, issuerURL, err)
		}
		if _, seen := keys[k.KeyID]; !seen {
			order = append(order, k.KeyID)
		}
		keys[k.KeyID] = material
	}

	d.store.putAll(issuerURL, keys, order)
	d.logger.Debugf("discovery source loaded %d keys for %s", len(order), issuerURL)
	return nil
}

func (d *Discovery) configuration(ctx context.Context, issuerURL string) (*DiscoveryDocument, error) {
	doc, ok, err := d.docs.Get(ctx, issuerURL)
	if err != nil {
		d.logger.Warnf("discovery cache read for %s failed: %v", issuerURL, err)
	}
	if ok {
		return &doc, nil
	}

	u, err := url.Parse(issuerURL)
	if err != nil {
		return nil, &KeyFetchError{URL: issuerURL, Err: fmt.Errorf("invalid issuer URL: %w", err)}
	}

	expected := ""
	if d.checkIssuer {
		expected = issuerURL
	}

	d.logger.Debugf("fetching openid-configuration for %s", issuerURL)
	fetched, err := oidc.FetchConfiguration(ctx, d.client, *u, expected)
	if err != nil {
		d.logger.Errorf("fetching openid-configuration for %s failed: %v", issuerURL, err)
		return nil, fetchError(issuerURL, err)
	}

	if err := d.docs.Set(ctx, issuerURL, *fetched, d.now().Add(d.ttl)); err != nil {
		d.logger.Warnf("discovery cache write for %s failed: %v", issuerURL, err)
	}
	return fetched, nil
}

func fetchError(target string, err error) error {
	fe := &KeyFetchError{URL: target, Err: err}
	var statusErr *oidc.StatusError
	if errors.As(err, &statusErr) {
		fe.StatusCode = statusErr.StatusCode
	}
	return fe
}
