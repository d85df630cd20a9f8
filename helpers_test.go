package jwtmanager

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tokenkit/go-jwt-manager/issuer"
)

const (
	testIssuer   = "https://issuer.example"
	testKeyID    = "key-1"
	testSecret   = "abcdefghijklmnopqrstuvwxyz012345"
	testAudience = "test-audience"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testNow} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user-1",
		"aud": testAudience,
		"iat": testNow.Unix(),
		"exp": testNow.Add(time.Hour).Unix(),
	}
}

func symmetricRegistry(t *testing.T) *issuer.Registry {
	t.Helper()

	src, err := issuer.NewSymmetric([]string{testIssuer})
	require.NoError(t, err)
	require.NoError(t, src.AddSecret(testIssuer, testKeyID, testSecret))
	return issuer.NewRegistry(src)
}

func rsaKeyPEM(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// countingResolver counts lookups made through it.
type countingResolver struct {
	KeyResolver
	calls atomic.Int32
}

func (r *countingResolver) Get(ctx context.Context, issuerURL, keyID string) (issuer.Key, bool, error) {
	r.calls.Add(1)
	return r.KeyResolver.Get(ctx, issuerURL, keyID)
}

type resolverFunc func(ctx context.Context, issuerURL, keyID string) (issuer.Key, bool, error)

func (f resolverFunc) Get(ctx context.Context, issuerURL, keyID string) (issuer.Key, bool, error) {
	return f(ctx, issuerURL, keyID)
}

func newTestManager(t *testing.T, resolver KeyResolver, opts ...Option) *Manager {
	t.Helper()

	m, err := New(resolver, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}
