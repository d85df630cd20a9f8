package issuer

import (
	"errors"
	"net/http"
	"time"

	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/internal/oidc"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// DefaultDiscoveryTTL is how long a discovery document is reused before it
// is fetched again.
const DefaultDiscoveryTTL = 24 * time.Hour

// DiscoveryDocument is the cached part of an OpenID provider configuration.
type DiscoveryDocument = oidc.Configuration

// DiscoveryCache stores discovery documents keyed by issuer URL.
type DiscoveryCache = cache.Cache[string, DiscoveryDocument]

// Option configures a source. Options that do not apply to a source are
// ignored by it.
type Option func(*options) error

type options struct {
	logger         logging.Logger
	httpClient     *http.Client
	discoveryCache DiscoveryCache
	discoveryTTL   time.Duration
	now            func() time.Time
	checkIssuer    bool
	allowed        []string
	maxTenants     int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		logger:       logging.Noop,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		discoveryTTL: DefaultDiscoveryTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(o *options) error {
		o.logger = logging.OrNoop(l)
		return nil
	}
}

// WithHTTPClient sets the client used for discovery and key set requests.
// The default has a 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		o.httpClient = c
		return nil
	}
}

// WithDiscoveryCache sets where discovery documents are cached. The default
// is an in-memory cache private to each source.
func WithDiscoveryCache(c DiscoveryCache) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("discovery cache cannot be nil")
		}
		o.discoveryCache = c
		return nil
	}
}

// WithDiscoveryTTL sets how long a discovery document is reused.
func WithDiscoveryTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl <= 0 {
			return errors.New("discovery TTL must be positive")
		}
		o.discoveryTTL = ttl
		return nil
	}
}

// WithClock overrides the time source used for store timestamps and
// discovery expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// WithIssuerMetadataValidation requires the issuer field of each discovery
// document to equal the issuer URL it was fetched for.
func WithIssuerMetadataValidation() Option {
	return func(o *options) error {
		o.checkIssuer = true
		return nil
	}
}

// WithAllowedIssuers restricts a MultiTenant source to the given issuer
// URLs. An empty list allows every tenant.
func WithAllowedIssuers(issuers ...string) Option {
	return func(o *options) error {
		o.allowed = append(o.allowed, issuers...)
		return nil
	}
}

// WithMaxTenants bounds how many tenant sources a MultiTenant keeps. The
// least recently used tenant is dropped when the bound is reached. Zero,
// the default, keeps every tenant.
func WithMaxTenants(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max tenants cannot be negative")
		}
		o.maxTenants = n
		return nil
	}
}
