package jwtmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/issuer"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// KeyResolver finds key material for an issuer and key id.
// *issuer.Registry implements it.
type KeyResolver interface {
	Get(ctx context.Context, issuerURL, keyID string) (issuer.Key, bool, error)
}

// Listener receives verification cache events.
type Listener interface {
	// OnAdd is called when verified claims are cached.
	OnAdd(claims Claims)
	// OnExpire is called when cached claims expire.
	OnExpire(claims Claims)
}

// ListenerFuncs adapts functions to the Listener interface. Either may be
// nil.
type ListenerFuncs struct {
	Add    func(Claims)
	Expire func(Claims)
}

func (f ListenerFuncs) OnAdd(c Claims) {
	if f.Add != nil {
		f.Add(c)
	}
}

func (f ListenerFuncs) OnExpire(c Claims) {
	if f.Expire != nil {
		f.Expire(c)
	}
}

// Result is the outcome of a successful verification.
type Result struct {
	Body   Claims
	Cached bool
	Issuer string
	KeyID  string
}

// Manager verifies tokens against keys from a KeyResolver and caches the
// verified claims until the token expires.
type Manager struct {
	resolver  KeyResolver
	cache     cache.Cache[string, Claims]
	logger    logging.Logger
	metrics   Metrics
	tracer    Tracer
	listeners []Listener
	now       func() time.Time
	defaults  []VerifyOption
	sweep     time.Duration

	closers []func()
}

// DefaultSweepInterval is how often the default verification cache purges
// expired tokens.
const DefaultSweepInterval = time.Minute

// New constructs a Manager.
//
//	registry := issuer.NewRegistry(source)
//	manager, err := jwtmanager.New(registry, jwtmanager.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := manager.Verify(ctx, r.Header.Get("Authorization"))
func New(resolver KeyResolver, opts ...Option) (*Manager, error) {
	if resolver == nil {
		return nil, errors.New("key resolver is required")
	}

	m := &Manager{
		resolver: resolver,
		logger:   logging.Noop,
		metrics:  &NoopMetrics{},
		tracer:   &NoopTracer{},
		now:      time.Now,
		sweep:    DefaultSweepInterval,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.cache == nil {
		c, err := cache.NewExpireCache[string, Claims](
			cache.WithClock(m.now),
			cache.WithSweepInterval(m.sweep),
		)
		if err != nil {
			return nil, fmt.Errorf("creating verification cache: %w", err)
		}
		m.cache = c
		m.closers = append(m.closers, func() { _ = c.Close() })
	}

	if n, ok := m.cache.(cache.Notifier[string, Claims]); ok {
		unsubscribe := n.Subscribe(cache.ListenerFuncs[string, Claims]{
			Set:    func(_ string, c Claims) { m.notify(Listener.OnAdd, c) },
			Expire: func(_ string, c Claims) { m.notify(Listener.OnExpire, c) },
		})
		m.closers = append(m.closers, unsubscribe)
	}

	return m, nil
}

// Close detaches the manager from its cache and stops the default cache.
func (m *Manager) Close() error {
	for _, c := range m.closers {
		c()
	}
	m.closers = nil
	return nil
}

func (m *Manager) notify(event func(Listener, Claims), c Claims) {
	for _, l := range m.listeners {
		event(l, maps.Clone(c))
	}
}

// Verify checks a token, or an "Authorization" header value carrying a
// Bearer token, and returns its claims.
//
// A token already in the verification cache is returned with Cached set and
// without resolving keys. Result.Body is a copy of the cached claims; nested
// values are shared. Otherwise the key named by the token's kid header
// is resolved for its iss claim, the signature and time claims are checked,
// and tokens with an exp claim are cached until they expire.
func (m *Manager) Verify(ctx context.Context, tokenOrBearer string, opts ...VerifyOption) (*Result, error) {
	start := time.Now()
	ctx, span := m.tracer.StartSpan(ctx, "jwtmanager.Verify")
	defer span.Finish()

	cfg := &verifyConfig{}
	for _, opt := range m.defaults {
		opt(cfg)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	res, err := m.verify(ctx, span, tokenOrBearer, cfg)

	outcome := "verified"
	switch {
	case err != nil:
		outcome = "error"
	case res.Cached:
		outcome = "cached"
	}
	tags := map[string]string{"result": outcome}
	m.metrics.IncCounter(MetricVerifyTotal, tags)
	m.metrics.ObserveHistogram(MetricVerifyDuration, time.Since(start).Seconds(), tags)

	if err != nil {
		span.RecordError(err)
		m.logger.Errorf("jwt verification failed: %v", err)
		return nil, err
	}
	return res, nil
}

func (m *Manager) verify(ctx context.Context, span Span, input string, cfg *verifyConfig) (*Result, error) {
	token, err := bearerToken(input)
	if err != nil {
		return nil, err
	}

	kid, alg, body, err := decodeUnverified(token)
	if err != nil {
		return nil, err
	}
	iss := body.Issuer()
	span.SetTag("jwt.issuer", iss)
	span.SetTag("jwt.kid", kid)

	cached, ok, err := m.cache.Get(ctx, token)
	if err != nil {
		m.logger.Warnf("verification cache read failed: %v", err)
	}
	if ok {
		span.SetTag("jwt.cached", true)
		m.logger.Debugf("jwt cache hit for issuer %s kid %q", iss, kid)
		return &Result{Body: maps.Clone(cached), Cached: true, Issuer: iss, KeyID: kid}, nil
	}
	span.SetTag("jwt.cached", false)

	key, ok, err := m.resolver.Get(ctx, iss, kid)
	if err != nil {
		return nil, fmt.Errorf("resolving key %q for issuer %s: %w", kid, iss, err)
	}
	if !ok {
		return nil, invalid(fmt.Errorf("%w: issuer %s kid %q", ErrKeyNotFound, iss, kid))
	}

	if !algorithmAllowed(alg, key.Kind, cfg.algorithms) {
		return nil, invalid(&SignatureError{Err: fmt.Errorf("algorithm %q is not allowed for %s keys", alg, key.Kind)})
	}

	verifyKey, err := verificationKey(key)
	if err != nil {
		return nil, fmt.Errorf("key %q for issuer %s: %w", kid, iss, err)
	}

	if err := m.verifySignature(token, alg, verifyKey, cfg); err != nil {
		return nil, invalid(&SignatureError{Err: err})
	}

	if cfg.bodyValidator != nil {
		if err := cfg.bodyValidator(body); err != nil {
			return nil, invalid(fmt.Errorf("token body validation: %w", err))
		}
	}

	if exp, ok := body.ExpiresAt(); ok {
		if err := m.cache.Set(ctx, token, maps.Clone(body), exp); err != nil {
			m.logger.Warnf("verification cache write failed: %v", err)
		}
	}

	return &Result{Body: body, Issuer: iss, KeyID: kid}, nil
}

func (m *Manager) verifySignature(token string, alg jwa.SignatureAlgorithm, key any, cfg *verifyConfig) error {
	parseOpts := []jwt.ParseOption{
		jwt.WithKey(alg, key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(m.now)),
		jwt.WithAcceptableSkew(cfg.skew),
	}
	if cfg.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(cfg.audience))
	}
	if cfg.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(cfg.issuer))
	}

	_, err := jwt.Parse([]byte(token), parseOpts...)
	return err
}

// decodeUnverified reads the kid, alg and body of a compact JWS without
// checking its signature.
func decodeUnverified(token string) (string, jwa.SignatureAlgorithm, Claims, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return "", "", nil, invalid(fmt.Errorf("%w: %v", ErrMalformedToken, err))
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", "", nil, invalid(fmt.Errorf("%w: no signature", ErrMalformedToken))
	}

	var body Claims
	if err := json.Unmarshal(msg.Payload(), &body); err != nil || body == nil {
		return "", "", nil, invalid(fmt.Errorf("%w: token body: invalid token", ErrMalformedToken))
	}

	headers := sigs[0].ProtectedHeaders()
	kid := headers.KeyID()
	if kid == "" {
		return "", "", nil, invalid(ErrHeaderField)
	}
	if body.Issuer() == "" {
		return "", "", nil, invalid(ErrBodyField)
	}
	return kid, headers.Algorithm(), body, nil
}
