/*
Package oidc fetches OpenID Connect discovery documents and the JSON Web Key
Sets they point to.

The discovery document lives at a well-known path below the issuer:

	https://issuer.example.com/.well-known/openid-configuration

Its jwks_uri field names the key set, which is fetched separately:

	cfg, err := oidc.FetchConfiguration(ctx, client, *issuerURL, "")
	if err != nil {
	    // network failure, non-2xx status (*oidc.StatusError) or bad JSON
	}
	set, err := oidc.FetchJWKS(ctx, client, cfg.JWKSURI)

Passing a non-empty expected issuer to FetchConfiguration also checks the
issuer field of the document against it.

OpenID Connect Discovery 1.0:
https://openid.net/specs/openid-connect-discovery-1_0.html
*/
package oidc
