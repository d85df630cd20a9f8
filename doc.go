/*
Package jwtmanager verifies JWTs against keys resolved per issuer and caches
the verified claims until the tokens expire.

Keys come from an issuer.Registry holding one or more sources: shared
secrets, static PEM keys, keys discovered from an OpenID Connect issuer's
published key set, or a multi-tenant source that creates one discovery
source per Azure AD tenant on first use. The Manager decodes the token,
finds the key named by its kid header for its iss claim, verifies the
signature and time claims, and remembers the result.

# Quick Start

	import (
	    jwtmanager "github.com/tokenkit/go-jwt-manager"
	    "github.com/tokenkit/go-jwt-manager/issuer"
	)

	func main() {
	    source, err := issuer.NewDiscovery([]issuer.Rule{
	        issuer.Exact("https://your-domain.auth0.com/"),
	    })
	    if err != nil {
	        log.Fatal(err)
	    }

	    manager, err := jwtmanager.New(issuer.NewRegistry(source))
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer manager.Close()

	    middleware, err := jwtmanager.NewMiddleware(manager,
	        jwtmanager.WithVerifyOptions(jwtmanager.WithAudience("your-api-identifier")),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware.CheckJWT(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Verifying Directly

Verify accepts a bare token or an Authorization header value:

	result, err := manager.Verify(ctx, r.Header.Get("Authorization"))
	if err != nil {
	    return err
	}
	fmt.Println(result.Body.Subject(), result.Cached)

# Accessing Claims

The middleware stores the verified Claims in the request context:

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwtmanager.GetClaims[jwtmanager.Claims](r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", claims.Subject())
	}

# Errors

Every error caused by the token itself matches ErrJWTInvalid:

  - ErrHeaderType: the Authorization scheme is not Bearer
  - ErrMalformedToken: the token cannot be decoded
  - ErrHeaderField: the header has no kid
  - ErrBodyField: the body has no iss
  - ErrKeyNotFound: no key is known for the issuer and kid
  - *SignatureError: signature, algorithm or time claim checks failed

Failures to fetch keys (*issuer.KeyFetchError) or to use key material
(issuer.ErrKeyFormat) do not match ErrJWTInvalid, and DefaultErrorHandler
answers them with 500.

# Cache Events

Listeners registered with WithListener are told when claims are cached and
when they expire. NewMetricsListener turns those events into metrics:

	metrics := jwtmanager.NewPrometheusMetrics()
	manager, err := jwtmanager.New(registry,
	    jwtmanager.WithMetrics(metrics),
	    jwtmanager.WithListener(jwtmanager.NewMetricsListener(metrics)),
	)

# Framework Adapters

The framework/gin, framework/echo and framework/grpc packages wrap a
Middleware for those stacks.
*/
package jwtmanager
