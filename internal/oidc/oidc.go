package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/tokenkit/go-jwt-manager/internal/jwkpem"
)

// maxBodySize caps how much of a discovery or JWKS response is read.
const maxBodySize = 1 << 20

// ErrIssuerMismatch is returned when a discovery document names a different
// issuer than the one it was fetched for.
var ErrIssuerMismatch = errors.New("issuer mismatch")

// Configuration is the subset of an OpenID provider configuration that is
// used for key discovery.
type Configuration struct {
	Issuer                string   `json:"issuer"`
	JWKSURI               string   `json:"jwks_uri"`
	AuthorizationEndpoint string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string   `json:"token_endpoint,omitempty"`
	SigningAlgorithms     []string `json:"id_token_signing_alg_values_supported,omitempty"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []jwkpem.JWK `json:"keys"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status from %s: %s", e.URL, e.Status)
}

// FetchConfiguration loads the discovery document for issuerURL. When
// expectedIssuer is non-empty the document's issuer must equal it.
func FetchConfiguration(ctx context.Context, client *http.Client, issuerURL url.URL, expectedIssuer string) (*Configuration, error) {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")

	var cfg Configuration
	if err := getJSON(ctx, client, issuerURL.String(), &cfg); err != nil {
		return nil, fmt.Errorf("could not fetch well-known endpoints: %w", err)
	}

	if cfg.JWKSURI == "" {
		return nil, fmt.Errorf("discovery document from %s is missing required 'jwks_uri' field", issuerURL.String())
	}
	if expectedIssuer != "" {
		if cfg.Issuer == "" {
			return nil, fmt.Errorf("discovery document from %s is missing required 'issuer' field", issuerURL.String())
		}
		if cfg.Issuer != expectedIssuer {
			return nil, fmt.Errorf("%w: expected %q, got %q", ErrIssuerMismatch, expectedIssuer, cfg.Issuer)
		}
	}

	return &cfg, nil
}

// FetchJWKS loads the key set published at jwksURI.
func FetchJWKS(ctx context.Context, client *http.Client, jwksURI string) (*JWKS, error) {
	var set JWKS
	if err := getJSON(ctx, client, jwksURI, &set); err != nil {
		return nil, fmt.Errorf("could not fetch key set: %w", err)
	}
	return &set, nil
}

func getJSON(ctx context.Context, client *http.Client, target string, v any) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return &StatusError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", target, err)
	}
	return nil
}
