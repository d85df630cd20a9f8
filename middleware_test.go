package jwtmanager

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CheckJWT(t *testing.T) {
	clock := newTestClock()

	validToken := "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), testKeyID, validClaims())
	invalidToken := "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("wrong-secret-wrong-secret-wrong!"), testKeyID, validClaims())

	wantClaims := Claims{
		"iss": testIssuer,
		"sub": "user-1",
		"aud": testAudience,
		"iat": float64(testNow.Unix()),
		"exp": float64(testNow.Unix() + 3600),
	}

	testCases := []struct {
		name           string
		options        []MiddlewareOption
		method         string
		token          string
		wantClaims     Claims
		wantStatusCode int
		wantBody       string
		path           string
	}{
		{
			name:           "it can successfully verify a token",
			token:          validToken,
			method:         http.MethodGet,
			wantClaims:     wantClaims,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "it can verify on options",
			method:         http.MethodOptions,
			token:          validToken,
			wantClaims:     wantClaims,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name:           "it fails to verify a token with a bad format",
			token:          "Bearer bad",
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid."}`,
		},
		{
			name:           "it fails with a header that is not bearer",
			token:          "bad",
			method:         http.MethodGet,
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the JWT."}`,
		},
		{
			name:           "it fails to verify if token is missing and credentials are not optional",
			method:         http.MethodGet,
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"JWT is missing."}`,
		},
		{
			name:           "it fails to verify an invalid token",
			token:          invalidToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid."}`,
		},
		{
			name:           "it checks the configured audience",
			options:        []MiddlewareOption{WithVerifyOptions(WithAudience("another-api"))},
			token:          validToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid."}`,
		},
		{
			name:           "it skips verification on OPTIONS if validateOnOptions is set to false",
			options:        []MiddlewareOption{WithValidateOnOptions(false)},
			method:         http.MethodOptions,
			token:          invalidToken,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name: "it fails verification if there are errors with the token extractor",
			options: []MiddlewareOption{
				WithTokenExtractor(func(r *http.Request) (string, error) {
					return "", errors.New("token extractor error")
				}),
			},
			method:         http.MethodGet,
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"message":"Something went wrong while checking the JWT."}`,
		},
		{
			name: "it calls the custom error handler when verification fails",
			options: []MiddlewareOption{
				WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					_, _ = w.Write(fmt.Appendf(nil, `{"message":"Custom error: %s"}`, err.Error()))
				}),
			},
			token:          "invalid_token",
			method:         http.MethodGet,
			wantStatusCode: http.StatusForbidden,
			wantBody:       `{"message":"Custom error: error extracting token: Authorization header format must be Bearer {token}"}`,
		},
		{
			name: "credentialsOptional true",
			options: []MiddlewareOption{
				WithCredentialsOptional(true),
			},
			method:         http.MethodGet,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name: "credentialsOptional true still verifies a present token",
			options: []MiddlewareOption{
				WithCredentialsOptional(true),
			},
			token:          invalidToken,
			method:         http.MethodGet,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"JWT is invalid."}`,
		},
		{
			name: "JWT not required for /public using WithExclusionURLHandler",
			options: []MiddlewareOption{
				WithExclusionURLHandler(func(r *http.Request) bool {
					return r.URL.Path == "/public"
				}),
			},
			method:         http.MethodGet,
			path:           "/public",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"message":"Authenticated."}`,
		},
		{
			name: "JWT required for /secure using WithExclusionURLHandler",
			options: []MiddlewareOption{
				WithExclusionURLHandler(func(r *http.Request) bool {
					return r.URL.Path == "/public"
				}),
			},
			method:         http.MethodGet,
			path:           "/secure",
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"JWT is missing."}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			manager := newTestManager(t, symmetricRegistry(t), WithClock(clock.Now))
			middleware, err := NewMiddleware(manager, testCase.options...)
			require.NoError(t, err)

			var actualClaims Claims
			var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actualClaims, _ = GetClaims[Claims](r.Context())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"message":"Authenticated."}`))
			})

			testServer := httptest.NewServer(middleware.CheckJWT(handler))
			defer testServer.Close()

			request, err := http.NewRequest(testCase.method, testServer.URL+testCase.path, nil)
			require.NoError(t, err)
			if testCase.token != "" {
				request.Header.Add("Authorization", testCase.token)
			}

			response, err := testServer.Client().Do(request)
			require.NoError(t, err)
			defer response.Body.Close()
			body, err := io.ReadAll(response.Body)
			require.NoError(t, err)

			assert.Equal(t, testCase.wantStatusCode, response.StatusCode)
			assert.Equal(t, "application/json", response.Header.Get("Content-Type"))
			assert.Equal(t, testCase.wantBody, string(body))

			if want, got := testCase.wantClaims, actualClaims; !cmp.Equal(want, got) {
				t.Fatal(cmp.Diff(want, got))
			}
		})
	}
}

func TestNewMiddleware(t *testing.T) {
	manager := newTestManager(t, symmetricRegistry(t))

	t.Run("it requires a verifier", func(t *testing.T) {
		_, err := NewMiddleware(nil)
		assert.EqualError(t, err, "verifier is required")
	})

	tests := []struct {
		name    string
		opt     MiddlewareOption
		wantErr string
	}{
		{name: "nil error handler", opt: WithErrorHandler(nil), wantErr: "invalid option: error handler cannot be nil"},
		{name: "nil token extractor", opt: WithTokenExtractor(nil), wantErr: "invalid option: token extractor cannot be nil"},
		{name: "nil exclusion handler", opt: WithExclusionURLHandler(nil), wantErr: "invalid option: exclusion handler cannot be nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMiddleware(manager, tt.opt)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
