package jwtmanager

import (
	"math"
	"time"
)

// Claims is the decoded body of a verified token.
type Claims map[string]any

// String returns the claim name if it is a string.
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Issuer returns the iss claim.
func (c Claims) Issuer() string { return c.String("iss") }

// Subject returns the sub claim.
func (c Claims) Subject() string { return c.String("sub") }

// Audience returns the aud claim, which may be a string or a list.
func (c Claims) Audience() []string {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

// ExpiresAt returns the exp claim. ok is false when the claim is absent or
// not numeric.
func (c Claims) ExpiresAt() (t time.Time, ok bool) {
	return c.numericDate("exp")
}

// IssuedAt returns the iat claim.
func (c Claims) IssuedAt() (t time.Time, ok bool) {
	return c.numericDate("iat")
}

func (c Claims) numericDate(name string) (time.Time, bool) {
	var seconds float64
	switch v := c[name].(type) {
	case float64:
		seconds = v
	case int64:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	default:
		return time.Time{}, false
	}
	if seconds == 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(seconds * 1000)), true
}
