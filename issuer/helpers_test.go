package issuer

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *recordLogger) Debugf(format string, args ...any) { l.record("debug", format, args...) }
func (l *recordLogger) Infof(format string, args ...any)  { l.record("info", format, args...) }
func (l *recordLogger) Warnf(format string, args ...any)  { l.record("warn", format, args...) }
func (l *recordLogger) Errorf(format string, args ...any) { l.record("error", format, args...) }

func (l *recordLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// discoveryServer serves an openid-configuration document and a key set.
type discoveryServer struct {
	*httptest.Server

	configHits atomic.Int32
	jwksHits   atomic.Int32

	mu         sync.Mutex
	keys       []map[string]any
	jwksStatus int
}

func newDiscoveryServer(t *testing.T) *discoveryServer {
	t.Helper()

	ds := &discoveryServer{jwksStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) < len("/.well-known/openid-configuration") ||
			r.URL.Path[len(r.URL.Path)-len("/.well-known/openid-configuration"):] != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		ds.configHits.Add(1)
		issuer := "http://" + r.Host + r.URL.Path[:len(r.URL.Path)-len("/.well-known/openid-configuration")]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":   issuer,
			"jwks_uri": "http://" + r.Host + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		ds.jwksHits.Add(1)
		ds.mu.Lock()
		status, keys := ds.jwksStatus, ds.keys
		ds.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
	})

	ds.Server = httptest.NewServer(mux)
	t.Cleanup(ds.Close)
	return ds
}

func (ds *discoveryServer) setKeys(keys ...map[string]any) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.keys = keys
}

func (ds *discoveryServer) setStatus(status int) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.jwksStatus = status
}

// redirectClient sends every request to target, keeping the path.
func redirectClient(target string) *http.Client {
	u, _ := url.Parse(target)
	return &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.URL.Scheme = u.Scheme
		r.URL.Host = u.Host
		r.Host = u.Host
		return http.DefaultTransport.RoundTrip(r)
	})}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func rsaJWK(t *testing.T, kid string) (map[string]any, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return map[string]any{
		"kid": kid,
		"kty": "RSA",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   "AQAB",
	}, key
}
