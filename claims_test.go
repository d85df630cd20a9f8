package jwtmanager

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClaims(t *testing.T) {
	t.Run("it reads registered string claims", func(t *testing.T) {
		c := Claims{"iss": "https://issuer.example", "sub": "user-1", "scope": 3}

		assert.Equal(t, "https://issuer.example", c.Issuer())
		assert.Equal(t, "user-1", c.Subject())
		assert.Empty(t, c.String("scope"))
		assert.Empty(t, c.String("missing"))
	})

	t.Run("it reads the audience as a string or a list", func(t *testing.T) {
		assert.Equal(t, []string{"api"}, Claims{"aud": "api"}.Audience())
		assert.Equal(t, []string{"a", "b"}, Claims{"aud": []any{"a", 1, "b"}}.Audience())
		assert.Equal(t, []string{"c"}, Claims{"aud": []string{"c"}}.Audience())
		assert.Nil(t, Claims{}.Audience())
	})

	t.Run("it converts exp seconds to a time with millisecond precision", func(t *testing.T) {
		exp, ok := Claims{"exp": 1700000000.5}.ExpiresAt()
		assert.True(t, ok)
		assert.Equal(t, time.UnixMilli(1700000000500), exp)

		iat, ok := Claims{"iat": int64(1700000000)}.IssuedAt()
		assert.True(t, ok)
		assert.Equal(t, time.Unix(1700000000, 0), iat)
	})

	t.Run("it treats zero, NaN and non numeric exp as absent", func(t *testing.T) {
		for _, v := range []any{0.0, math.NaN(), math.Inf(1), "1700000000", nil} {
			_, ok := Claims{"exp": v}.ExpiresAt()
			assert.False(t, ok, "exp %v", v)
		}
		_, ok := Claims{}.ExpiresAt()
		assert.False(t, ok)
	})
}
