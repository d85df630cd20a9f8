// Package jwtgin adapts a jwtmanager.Middleware to Gin.
package jwtgin

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	jwtmanager "github.com/tokenkit/go-jwt-manager"
)

// DefaultClaimsKey is the gin.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type config struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
}

// Option configures the Gin middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler for the middleware. The
// handler is expected to abort the context.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// WithContextKey sets the gin.Context key the claims are stored under.
func WithContextKey(key string) Option {
	return func(c *config) {
		c.contextKey = key
	}
}

// New creates a Gin middleware for JWT authentication. Token extraction,
// optional credentials and verify options come from mw.
func New(mw *jwtmanager.Middleware, opts ...Option) gin.HandlerFunc {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		token, err := mw.ExtractToken(c.Request)
		if err != nil {
			cfg.errorHandler(c, fmt.Errorf("error extracting token: %w", err))
			c.Abort()
			return
		}

		claims, err := mw.Authenticate(c.Request.Context(), token)
		if err != nil {
			cfg.errorHandler(c, err)
			c.Abort()
			return
		}

		if claims != nil {
			c.Set(cfg.contextKey, claims)
			c.Request = c.Request.WithContext(jwtmanager.SetClaims(c.Request.Context(), claims))
		}
		c.Next()
	}
}

func defaultErrorHandler(c *gin.Context, err error) {
	status, _ := jwtmanager.ErrorResponse(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
	})
}

// GetClaims returns the claims stored by the middleware under contextKey,
// or DefaultClaimsKey when contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (jwtmanager.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	verified, ok := claims.(jwtmanager.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return verified, nil
}
