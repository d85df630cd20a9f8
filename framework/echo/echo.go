// Package jwtecho adapts a jwtmanager.Middleware to Echo.
package jwtecho

import (
	"fmt"

	"github.com/labstack/echo/v4"

	jwtmanager "github.com/tokenkit/go-jwt-manager"
)

// DefaultClaimsKey is the echo.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

type config struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
}

// Option is a function that configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler. Its result is returned
// from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store claims.
func WithContextKey(key string) Option {
	return func(c *config) {
		c.contextKey = key
	}
}

// New creates an Echo middleware for JWT authentication. Token extraction,
// optional credentials and verify options come from mw.
func New(mw *jwtmanager.Middleware, opts ...Option) echo.MiddlewareFunc {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := mw.ExtractToken(c.Request())
			if err != nil {
				return cfg.errorHandler(c, fmt.Errorf("error extracting token: %w", err))
			}

			claims, err := mw.Authenticate(c.Request().Context(), token)
			if err != nil {
				return cfg.errorHandler(c, err)
			}

			if claims != nil {
				c.Set(cfg.contextKey, claims)
				c.SetRequest(c.Request().WithContext(jwtmanager.SetClaims(c.Request().Context(), claims)))
			}
			return next(c)
		}
	}
}

func defaultErrorHandler(c echo.Context, err error) error {
	status, _ := jwtmanager.ErrorResponse(err)
	return c.JSON(status, map[string]string{
		"message": err.Error(),
	})
}

// GetClaims extracts the JWT claims from the Echo context.
func GetClaims(c echo.Context, contextKey string) (jwtmanager.Claims, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, ok := c.Get(contextKey).(jwtmanager.Claims)
	return claims, ok
}
