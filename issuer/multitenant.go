package issuer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// Issuer URL prefixes of Microsoft Entra ID tenants.
var tenantPrefixes = []string{
	"https://sts.windows.net/",
	"https://login.microsoftonline.com/",
}

// MultiTenant answers for Microsoft Entra ID tenants. It creates a dedicated
// Discovery source the first time each tenant issuer URL is seen and
// delegates to it.
type MultiTenant struct {
	opts    *options
	allowed []string
	logger  logging.Logger

	mu      sync.Mutex
	tenants map[string]*Discovery
	bounded *lru.Cache[string, *Discovery]
}

var _ Source = (*MultiTenant)(nil)

// NewMultiTenant returns a multi-tenant source. WithAllowedIssuers limits
// the accepted tenants and WithMaxTenants bounds how many are kept.
func NewMultiTenant(opts ...Option) (*MultiTenant, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}

	// Tenants share one discovery cache.
	if o.discoveryCache == nil {
		c, err := cache.NewExpireCache[string, DiscoveryDocument](
			cache.WithDefaultTTL(o.discoveryTTL),
			cache.WithClock(o.now),
		)
		if err != nil {
			return nil, fmt.Errorf("creating discovery cache: %w", err)
		}
		o.discoveryCache = c
	}

	m := &MultiTenant{
		opts:    o,
		allowed: slices.Clone(o.allowed),
		logger:  o.logger,
	}
	if o.maxTenants > 0 {
		m.bounded, err = lru.New[string, *Discovery](o.maxTenants)
		if err != nil {
			return nil, fmt.Errorf("creating tenant index: %w", err)
		}
	} else {
		m.tenants = make(map[string]*Discovery)
	}

	m.logger.Infof("multi-tenant source created for %d allowed issuers", len(m.allowed))
	return m, nil
}

func (m *MultiTenant) Kind() Kind { return KindAsymmetric }

func (m *MultiTenant) Match(issuerURL string) bool {
	if len(m.allowed) > 0 && !slices.Contains(m.allowed, issuerURL) {
		return false
	}
	for _, prefix := range tenantPrefixes {
		if strings.HasPrefix(issuerURL, prefix) {
			return true
		}
	}
	return false
}

func (m *MultiTenant) Add(issuerURL, keyID string, material []byte) error {
	m.logger.Debugf("multi-tenant source add %s %s", issuerURL, keyID)
	t, err := m.tenant(issuerURL)
	if err != nil {
		return err
	}
	return t.Add(issuerURL, keyID, material)
}

func (m *MultiTenant) Get(ctx context.Context, issuerURL, keyID string) ([]byte, bool, error) {
	m.logger.Debugf("multi-tenant source get %s %s", issuerURL, keyID)
	t, err := m.tenant(issuerURL)
	if err != nil {
		return nil, false, err
	}
	return t.Get(ctx, issuerURL, keyID)
}

func (m *MultiTenant) ListKeyIDs(ctx context.Context, issuerURL string) ([]string, error) {
	t, err := m.tenant(issuerURL)
	if err != nil {
		return nil, err
	}
	return t.ListKeyIDs(ctx, issuerURL)
}

// Load forces a key set fetch for one tenant.
func (m *MultiTenant) Load(ctx context.Context, issuerURL string) error {
	t, err := m.tenant(issuerURL)
	if err != nil {
		return err
	}
	return t.Load(ctx, issuerURL)
}

// Import hands every matching asymmetric snapshot entry to its tenant,
// creating the tenant if needed.
func (m *MultiTenant) Import(snapshot Snapshot) error {
	for issuerURL, entry := range snapshot {
		if entry.Type != KindAsymmetric || !m.Match(issuerURL) {
			continue
		}
		t, err := m.tenant(issuerURL)
		if err != nil {
			return err
		}
		if err := t.Import(Snapshot{issuerURL: snapshot[issuerURL]}); err != nil {
			return err
		}
	}
	return nil
}

// Export merges the snapshots of all current tenants.
func (m *MultiTenant) Export() Snapshot {
	out := make(Snapshot)
	for _, t := range m.tenantList() {
		out.merge(t.Export())
	}
	return out
}

// TenantCount returns how many tenant sources are held.
func (m *MultiTenant) TenantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bounded != nil {
		return m.bounded.Len()
	}
	return len(m.tenants)
}

func (m *MultiTenant) String() string {
	return fmt.Sprintf("multi-tenant source: %d tenants", m.TenantCount())
}

func (m *MultiTenant) tenant(issuerURL string) (*Discovery, error) {
	if !m.Match(issuerURL) {
		return nil, mismatch(issuerURL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bounded != nil {
		if t, ok := m.bounded.Get(issuerURL); ok {
			return t, nil
		}
	} else if t, ok := m.tenants[issuerURL]; ok {
		return t, nil
	}

	m.logger.Debugf("multi-tenant source creating tenant %s", issuerURL)
	t, err := newDiscovery([]Rule{Exact(issuerURL)}, m.opts)
	if err != nil {
		return nil, err
	}

	if m.bounded != nil {
		if evicted := m.bounded.Add(issuerURL, t); evicted {
			m.logger.Debugf("multi-tenant source evicted least recently used tenant")
		}
	} else {
		m.tenants[issuerURL] = t
	}
	return t, nil
}

func (m *MultiTenant) tenantList() []*Discovery {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bounded != nil {
		return m.bounded.Values()
	}
	out := make([]*Discovery, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out
}
