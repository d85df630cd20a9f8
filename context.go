package jwtmanager

import "context"

// contextKey is unexported so that only this package can set claims.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves claims stored by the middleware.
//
//	claims, err := jwtmanager.GetClaims[jwtmanager.Claims](r.Context())
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, ErrClaimsNotFound
	}
	return claims, nil
}

// MustGetClaims is GetClaims that panics when no claims are stored.
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// SetClaims stores claims in the context. Adapters use it after a
// successful verification.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims reports whether claims are stored in the context.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
