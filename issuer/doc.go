/*
Package issuer resolves signing key material for JWT issuers.

A Source answers for a set of issuer URLs and holds the keys of each issuer it
has seen, keyed by key id. Four sources are provided:

  - Symmetric: shared secrets for a fixed list of issuer URLs.
  - Asymmetric: public keys added up front for issuers matched by rules.
  - Discovery: like Asymmetric, but loads missing keys from the issuer's
    OpenID discovery document and JSON Web Key Set.
  - MultiTenant: one Discovery per Microsoft Entra tenant, created on demand.

A Registry holds an ordered list of sources. The first source that matches an
issuer URL answers for it:

	internal, err := issuer.NewSymmetric([]string{"https://internal.example.com"})
	if err != nil {
	    return err
	}
	google, err := issuer.NewDiscovery([]issuer.Rule{issuer.Exact("https://accounts.google.com")})
	if err != nil {
	    return err
	}
	registry := issuer.NewRegistry(internal, google)
	key, ok, err := registry.Get(ctx, "https://accounts.google.com", kid)

Key material of static and discovered sources can be exported as a Snapshot
and imported again, so that a process can start without fetching keys.
*/
package issuer
