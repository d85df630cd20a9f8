package jwtmanager

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParameterTokenExtractor(t *testing.T) {
	u, err := url.Parse("http://localhost?i-am-param=i-am-token")
	require.NoError(t, err)

	token, err := ParameterTokenExtractor("i-am-param")(&http.Request{URL: u})
	require.NoError(t, err)
	assert.Equal(t, "i-am-token", token)
}

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		request   *http.Request
		wantToken string
		wantError string
	}{
		{
			name:    "empty / no header",
			request: &http.Request{},
		},
		{
			name:      "token in header",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"Bearer i-am-token"}}},
			wantToken: "i-am-token",
		},
		{
			name:      "lowercase scheme",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"bearer i-am-token"}}},
			wantToken: "i-am-token",
		},
		{
			name:      "no bearer",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"i-am-token"}}},
			wantError: "Authorization header format must be Bearer {token}",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := AuthHeaderTokenExtractor(testCase.request)
			if testCase.wantError != "" {
				assert.EqualError(t, err, testCase.wantError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func Test_CookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{
			name:      "token in cookie",
			cookie:    &http.Cookie{Name: "token", Value: "i-am-token"},
			wantToken: "i-am-token",
		},
		{
			name:   "no cookie",
			cookie: nil,
		},
		{
			name:   "other cookie",
			cookie: &http.Cookie{Name: "session", Value: "abc"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
			require.NoError(t, err)
			if testCase.cookie != nil {
				req.AddCookie(testCase.cookie)
			}

			token, err := CookieTokenExtractor("token")(req)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func Test_MultiTokenExtractor(t *testing.T) {
	noopExtractor := func(r *http.Request) (string, error) { return "", nil }
	tokenExtractor := func(r *http.Request) (string, error) { return "i-am-token", nil }
	errorExtractor := func(r *http.Request) (string, error) { return "", errors.New("extraction failure") }

	t.Run("it returns the first non empty token", func(t *testing.T) {
		token, err := MultiTokenExtractor(noopExtractor, tokenExtractor, errorExtractor)(&http.Request{})
		require.NoError(t, err)
		assert.Equal(t, "i-am-token", token)
	})

	t.Run("it stops at the first error", func(t *testing.T) {
		token, err := MultiTokenExtractor(noopExtractor, errorExtractor, tokenExtractor)(&http.Request{})
		assert.EqualError(t, err, "extraction failure")
		assert.Empty(t, token)
	})

	t.Run("it returns an empty token when nothing is found", func(t *testing.T) {
		token, err := MultiTokenExtractor(noopExtractor, noopExtractor)(&http.Request{})
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func Test_bearerToken(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantToken string
		wantErr   error
	}{
		{name: "a bare token", input: "a.b.c", wantToken: "a.b.c"},
		{name: "a bearer header", input: "Bearer a.b.c", wantToken: "a.b.c"},
		{name: "a lowercase bearer header", input: "bearer a.b.c", wantToken: "a.b.c"},
		{name: "surrounding whitespace", input: "  Bearer a.b.c  ", wantToken: "a.b.c"},
		{name: "another scheme", input: "Basic dXNlcjpwYXNz", wantErr: ErrHeaderType},
		{name: "no credentials", input: "Bearer  ", wantErr: ErrMalformedToken},
		{name: "too many parts", input: "Bearer a.b.c extra", wantErr: ErrMalformedToken},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := bearerToken(testCase.input)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				assert.ErrorIs(t, err, ErrJWTInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}
