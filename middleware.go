package jwtmanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tokenkit/go-jwt-manager/logging"
)

// Verifier verifies a token. *Manager implements it.
type Verifier interface {
	Verify(ctx context.Context, tokenOrBearer string, opts ...VerifyOption) (*Result, error)
}

// ExclusionURLHandler reports whether a request skips verification.
type ExclusionURLHandler func(r *http.Request) bool

// Middleware authenticates requests with a Verifier and stores the verified
// Claims in the request context.
type Middleware struct {
	verifier            Verifier
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	credentialsOptional bool
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	verifyOptions       []VerifyOption
	logger              logging.Logger
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware) error

// NewMiddleware constructs a Middleware around v.
//
//	mw, err := jwtmanager.NewMiddleware(manager, jwtmanager.WithVerifyOptions(jwtmanager.WithAudience("my-api")))
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//	http.Handle("/api", mw.CheckJWT(handler))
func NewMiddleware(v Verifier, opts ...MiddlewareOption) (*Middleware, error) {
	if v == nil {
		return nil, errors.New("verifier is required")
	}

	m := &Middleware{
		verifier:          v,
		errorHandler:      DefaultErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		validateOnOptions: true,
		logger:            logging.Noop,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return m, nil
}

// WithErrorHandler sets the handler that writes error responses.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(m *Middleware) error {
		if h == nil {
			return errors.New("error handler cannot be nil")
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets how the token is read from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) MiddlewareOption {
	return func(m *Middleware) error {
		if e == nil {
			return errors.New("token extractor cannot be nil")
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithCredentialsOptional lets requests without a token through without
// claims.
//
// Default: false
func WithCredentialsOptional(value bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are verified.
//
// Default: true
func WithValidateOnOptions(value bool) MiddlewareOption {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithExclusionURLHandler skips verification for requests h accepts.
func WithExclusionURLHandler(h ExclusionURLHandler) MiddlewareOption {
	return func(m *Middleware) error {
		if h == nil {
			return errors.New("exclusion handler cannot be nil")
		}
		m.exclusionURLHandler = h
		return nil
	}
}

// WithVerifyOptions sets options passed to every Verify call.
func WithVerifyOptions(opts ...VerifyOption) MiddlewareOption {
	return func(m *Middleware) error {
		m.verifyOptions = append(m.verifyOptions, opts...)
		return nil
	}
}

// WithMiddlewareLogger sets the logger.
func WithMiddlewareLogger(l logging.Logger) MiddlewareOption {
	return func(m *Middleware) error {
		m.logger = logging.OrNoop(l)
		return nil
	}
}

// ExtractToken reads the token from r with the configured TokenExtractor.
func (m *Middleware) ExtractToken(r *http.Request) (string, error) {
	return m.tokenExtractor(r)
}

// Authenticate verifies token and returns its claims. An empty token fails
// with ErrJWTMissing unless credentials are optional, in which case nil
// claims and a nil error are returned. Transport adapters build on it.
func (m *Middleware) Authenticate(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		if m.credentialsOptional {
			return nil, nil
		}
		return nil, ErrJWTMissing
	}

	res, err := m.verifier.Verify(ctx, token, m.verifyOptions...)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// CheckJWT is the main middleware function. It calls next with the claims
// in the request context if the token verifies.
func (m *Middleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			m.logger.Debugf("skipping JWT verification for excluded URL %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.ExtractToken(r)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that the
			// tokenExtractor had an error and _not_ that the token was missing.
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		claims, err := m.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Warnf("JWT verification failed for %s %s: %v", r.Method, r.URL.Path, err)
			m.errorHandler(w, r, err)
			return
		}
		if claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), claims)))
	})
}
