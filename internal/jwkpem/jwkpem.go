// Package jwkpem converts JSON Web Keys published by OpenID providers into
// PEM-framed key material.
package jwkpem

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyFormat is returned when key material cannot be decoded or framed.
	ErrKeyFormat = errors.New("key format error")
	// ErrUnsupportedKey is returned for a JWK that carries neither an RSA
	// modulus/exponent pair nor an x5c certificate chain.
	ErrUnsupportedKey = errors.New("unsupported key type")
)

const (
	pemBegin = "-----BEGIN RSA PUBLIC KEY-----"
	pemEnd   = "-----END RSA PUBLIC KEY-----"
	lineLen  = 64
)

// JWK holds the fields of a JSON Web Key that take part in conversion.
type JWK struct {
	KeyID   string   `json:"kid"`
	KeyType string   `json:"kty,omitempty"`
	N       string   `json:"n,omitempty"`
	E       string   `json:"e,omitempty"`
	X5C     []string `json:"x5c,omitempty"`
}

// FromJWK returns PEM-framed material for key. An RSA modulus/exponent pair
// takes precedence over the first x5c certificate.
func FromJWK(key JWK) ([]byte, error) {
	if key.N != "" && key.E != "" {
		der, err := RSAPublicKeyPEM(key.N, key.E)
		if err != nil {
			return nil, err
		}
		return BuildCertFrame(der)
	}
	if len(key.X5C) > 0 {
		if key.X5C[0] == "" {
			return nil, fmt.Errorf("%w: x5c[0] is empty", ErrKeyFormat)
		}
		return BuildCertFrame(key.X5C[0])
	}
	return nil, ErrUnsupportedKey
}

// RSAPublicKeyPEM encodes a base64 modulus and exponent as
// SEQUENCE { INTEGER modulus, INTEGER exponent } and returns the DER in
// standard base64.
func RSAPublicKeyPEM(n, e string) (string, error) {
	modulus, err := decodeBase64(n)
	if err != nil {
		return "", fmt.Errorf("%w: modulus: %v", ErrKeyFormat, err)
	}
	exponent, err := decodeBase64(e)
	if err != nil {
		return "", fmt.Errorf("%w: exponent: %v", ErrKeyFormat, err)
	}

	body := append(derInteger(modulus), derInteger(exponent)...)
	der := append([]byte{0x30}, encodeLength(len(body))...)
	der = append(der, body...)

	return base64.StdEncoding.EncodeToString(der), nil
}

// BuildCertFrame splits der into 64 character lines and wraps them in
// RSA PUBLIC KEY armor with CRLF line endings.
func BuildCertFrame(der string) ([]byte, error) {
	if der == "" {
		return nil, fmt.Errorf("%w: cert data error", ErrKeyFormat)
	}

	var b strings.Builder
	b.WriteString(pemBegin)
	b.WriteString("\r\n")
	for len(der) > lineLen {
		b.WriteString(der[:lineLen])
		b.WriteString("\r\n")
		der = der[lineLen:]
	}
	b.WriteString(der)
	b.WriteString("\r\n")
	b.WriteString(pemEnd)
	b.WriteString("\r\n")

	return []byte(b.String()), nil
}

func derInteger(value []byte) []byte {
	// A leading byte >= 0x80 would read as negative.
	if len(value) > 0 && value[0] >= 0x80 {
		value = append([]byte{0x00}, value...)
	}
	out := append([]byte{0x02}, encodeLength(len(value))...)
	return append(out, value...)
}

// encodeLength returns a DER length: short form up to 127, long form
// 0x80|n followed by n big-endian bytes otherwise.
func encodeLength(n int) []byte {
	if n <= 127 {
		return []byte{byte(n)}
	}
	var raw []byte
	for v := n; v > 0; v >>= 8 {
		raw = append([]byte{byte(v)}, raw...)
	}
	return append([]byte{0x80 | byte(len(raw))}, raw...)
}

// decodeBase64 accepts standard and URL alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "+/") {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}
