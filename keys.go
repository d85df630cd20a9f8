package jwtmanager

import (
	"crypto"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"

	"github.com/tokenkit/go-jwt-manager/issuer"
)

var (
	symmetricAlgorithms = []jwa.SignatureAlgorithm{jwa.HS256, jwa.HS384, jwa.HS512}

	asymmetricAlgorithms = []jwa.SignatureAlgorithm{
		jwa.RS256, jwa.RS384, jwa.RS512,
		jwa.PS256, jwa.PS384, jwa.PS512,
		jwa.ES256, jwa.ES384, jwa.ES512,
		jwa.EdDSA,
	}
)

// algorithmAllowed reports whether alg may be used with a key of kind.
// An explicit allow list replaces the defaults for the kind.
func algorithmAllowed(alg jwa.SignatureAlgorithm, kind issuer.Kind, allowed []jwa.SignatureAlgorithm) bool {
	if alg == jwa.NoSignature {
		return false
	}
	if len(allowed) > 0 {
		return slices.Contains(allowed, alg)
	}
	if kind == issuer.KindSymmetric {
		return slices.Contains(symmetricAlgorithms, alg)
	}
	return slices.Contains(asymmetricAlgorithms, alg)
}

// verificationKey turns resolved key material into a key the JWT library can
// verify with. Asymmetric material is PEM: a PKIX or PKCS#1 public key, a
// certificate, or a private key whose public half is used.
func verificationKey(key issuer.Key) (any, error) {
	if key.Kind == issuer.KindSymmetric {
		return key.Material, nil
	}

	if k, err := jwt.ParseRSAPublicKeyFromPEM(key.Material); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(key.Material); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPublicKeyFromPEM(key.Material); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(key.Material); err == nil {
		return &k.PublicKey, nil
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(key.Material); err == nil {
		return &k.PublicKey, nil
	}
	if k, err := jwt.ParseEdPrivateKeyFromPEM(key.Material); err == nil {
		if signer, ok := k.(crypto.Signer); ok {
			return signer.Public(), nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognized PEM key material", issuer.ErrKeyFormat)
}
