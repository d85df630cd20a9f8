package jwtmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContext(t *testing.T) {
	t.Run("it round trips claims through the context", func(t *testing.T) {
		ctx := SetClaims(context.Background(), Claims{"sub": "user-1"})

		assert.True(t, HasClaims(ctx))
		claims, err := GetClaims[Claims](ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject())
		assert.Equal(t, claims, MustGetClaims[Claims](ctx))
	})

	t.Run("it reports missing claims", func(t *testing.T) {
		ctx := context.Background()

		assert.False(t, HasClaims(ctx))
		_, err := GetClaims[Claims](ctx)
		assert.ErrorIs(t, err, ErrClaimsNotFound)
		assert.Panics(t, func() { MustGetClaims[Claims](ctx) })
	})

	t.Run("it reports claims of another type as missing", func(t *testing.T) {
		ctx := SetClaims(context.Background(), "not claims")

		_, err := GetClaims[Claims](ctx)
		assert.ErrorIs(t, err, ErrClaimsNotFound)
	})
}
