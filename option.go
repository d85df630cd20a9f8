package jwtmanager

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"

	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// Option configures the Manager.
// Returns error for validation failures.
type Option func(*Manager) error

// WithCache sets the verification cache. Tokens are cached until their exp
// claim. If the cache implements cache.Notifier its events are forwarded to
// listeners.
//
// Default: an in-memory cache.ExpireCache swept every DefaultSweepInterval.
// A cache passed here is used as is; without a sweep of its own, expired
// tokens stay in it until they are presented again.
func WithCache(c cache.Cache[string, Claims]) Option {
	return func(m *Manager) error {
		if c == nil {
			return errors.New("cache cannot be nil")
		}
		m.cache = c
		return nil
	}
}

// WithLogger sets the logger. Failed verifications are logged at error
// level.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) error {
		m.logger = logging.OrNoop(l)
		return nil
	}
}

// WithMetrics sets where verification counts and latencies are recorded.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer that wraps each verification in a span.
func WithTracer(t Tracer) Option {
	return func(m *Manager) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		m.tracer = t
		return nil
	}
}

// WithListener registers a listener for verification cache events. It may
// be given more than once.
func WithListener(l Listener) Option {
	return func(m *Manager) error {
		if l == nil {
			return errors.New("listener cannot be nil")
		}
		m.listeners = append(m.listeners, l)
		return nil
	}
}

// WithClock overrides the time source used for token validation and the
// default cache.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		m.now = now
		return nil
	}
}

// WithSweepInterval sets how often the default verification cache purges
// expired tokens. It has no effect together with WithCache.
func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) error {
		if interval <= 0 {
			return errors.New("sweep interval must be positive")
		}
		m.sweep = interval
		return nil
	}
}

// WithDefaultVerifyOptions sets options applied to every Verify call before
// the call's own options.
func WithDefaultVerifyOptions(opts ...VerifyOption) Option {
	return func(m *Manager) error {
		m.defaults = append(m.defaults, opts...)
		return nil
	}
}

// VerifyOption configures a single verification.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	audience      string
	issuer        string
	algorithms    []jwa.SignatureAlgorithm
	skew          time.Duration
	bodyValidator func(Claims) error
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) VerifyOption {
	return func(c *verifyConfig) {
		c.audience = audience
	}
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) VerifyOption {
	return func(c *verifyConfig) {
		c.issuer = issuer
	}
}

// WithAlgorithms restricts the accepted signing algorithms, for example
// "RS256". Without it HS256/384/512 are accepted for symmetric keys and the
// RS, PS, ES and EdDSA families for asymmetric keys.
func WithAlgorithms(algs ...string) VerifyOption {
	return func(c *verifyConfig) {
		c.algorithms = nil
		for _, alg := range algs {
			c.algorithms = append(c.algorithms, jwa.SignatureAlgorithm(alg))
		}
	}
}

// WithAcceptableSkew tolerates clock differences when checking exp, nbf
// and iat.
func WithAcceptableSkew(skew time.Duration) VerifyOption {
	return func(c *verifyConfig) {
		c.skew = skew
	}
}

// WithBodyValidator runs fn on the verified claims. A non-nil error fails
// the verification and the token is not cached.
func WithBodyValidator(fn func(Claims) error) VerifyOption {
	return func(c *verifyConfig) {
		c.bodyValidator = fn
	}
}
