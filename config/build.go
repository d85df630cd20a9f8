package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	jwtmanager "github.com/tokenkit/go-jwt-manager"
	"github.com/tokenkit/go-jwt-manager/cache"
	"github.com/tokenkit/go-jwt-manager/cache/rediscache"
	"github.com/tokenkit/go-jwt-manager/issuer"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// Runtime holds what Build creates. Close releases it.
type Runtime struct {
	Registry *issuer.Registry
	Manager  *jwtmanager.Manager

	closers []func() error
}

// Close stops the manager and releases the Redis connection, if any.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Build creates the registry and manager described by cfg. The snapshot
// file is imported when it exists. opts are applied to the manager after
// the options derived from cfg.
func Build(cfg *Config, logger logging.Logger, opts ...jwtmanager.Option) (*Runtime, error) {
	logger = logging.OrNoop(logger)
	rt := &Runtime{}

	reg, err := rt.buildRegistry(cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Registry = reg

	if cfg.SnapshotFile != "" {
		snap, err := ReadSnapshot(cfg.SnapshotFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Infof("snapshot file %s does not exist, starting empty", cfg.SnapshotFile)
		case err != nil:
			_ = rt.Close()
			return nil, err
		default:
			if err := reg.Import(snap); err != nil {
				_ = rt.Close()
				return nil, fmt.Errorf("importing snapshot: %w", err)
			}
			logger.Infof("imported snapshot with %d issuers from %s", len(snap), cfg.SnapshotFile)
		}
	}

	m, err := rt.buildManager(cfg, reg, logger, opts)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Manager = m
	return rt, nil
}

func (rt *Runtime) buildRegistry(cfg *Config, logger logging.Logger) (*issuer.Registry, error) {
	common := []issuer.Option{issuer.WithLogger(logger)}
	if cfg.Discovery.TTL > 0 {
		common = append(common, issuer.WithDiscoveryTTL(cfg.Discovery.TTL))
	}
	if cfg.Discovery.HTTPTimeout > 0 {
		common = append(common, issuer.WithHTTPClient(&http.Client{Timeout: cfg.Discovery.HTTPTimeout}))
	}
	if cfg.Discovery.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Discovery.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing discovery.redis_url: %w", err)
		}
		client := redis.NewClient(opt)
		rt.closers = append(rt.closers, client.Close)

		docs, err := rediscache.New[issuer.DiscoveryDocument](client, rediscache.WithKeyPrefix("jwtmanager:discovery"))
		if err != nil {
			return nil, err
		}
		common = append(common, issuer.WithDiscoveryCache(docs))
	}

	reg := issuer.NewRegistry()
	reg.SetLogger(logger)
	for i, ic := range cfg.Issuers {
		src, err := buildSource(ic, common)
		if err != nil {
			return nil, fmt.Errorf("issuers[%d]: %w", i, err)
		}
		reg.Add(src)
	}
	return reg, nil
}

func buildSource(ic IssuerConfig, common []issuer.Option) (issuer.Source, error) {
	rules := make([]issuer.Rule, 0, len(ic.URLs)+len(ic.Patterns))
	for _, u := range ic.URLs {
		rules = append(rules, issuer.Exact(u))
	}
	for _, p := range ic.Patterns {
		rules = append(rules, issuer.MustPattern(p))
	}

	switch ic.Type {
	case TypeSymmetric:
		src, err := issuer.NewSymmetric(ic.URLs, common...)
		if err != nil {
			return nil, err
		}
		return src, addKeys(src, ic.Keys)
	case TypeAsymmetric:
		src, err := issuer.NewAsymmetric(rules, common...)
		if err != nil {
			return nil, err
		}
		return src, addKeys(src, ic.Keys)
	case TypeDiscovery:
		return issuer.NewDiscovery(rules, common...)
	case TypeMultiTenant:
		opts := append([]issuer.Option{}, common...)
		if len(ic.AllowedIssuers) > 0 {
			opts = append(opts, issuer.WithAllowedIssuers(ic.AllowedIssuers...))
		}
		if ic.MaxTenants > 0 {
			opts = append(opts, issuer.WithMaxTenants(ic.MaxTenants))
		}
		return issuer.NewMultiTenant(opts...)
	}
	return nil, fmt.Errorf("unknown type %q", ic.Type)
}

func addKeys(src issuer.Source, keys []KeyConfig) error {
	for _, k := range keys {
		material, err := k.material()
		if err != nil {
			return fmt.Errorf("key %q for %s: %w", k.KeyID, k.Issuer, err)
		}
		if err := src.Add(k.Issuer, k.KeyID, material); err != nil {
			return fmt.Errorf("key %q for %s: %w", k.KeyID, k.Issuer, err)
		}
	}
	return nil
}

func (rt *Runtime) buildManager(cfg *Config, reg *issuer.Registry, logger logging.Logger, extra []jwtmanager.Option) (*jwtmanager.Manager, error) {
	var cacheOpts []cache.Option
	if cfg.Verification.SweepInterval > 0 {
		cacheOpts = append(cacheOpts, cache.WithSweepInterval(cfg.Verification.SweepInterval))
	}
	verified, err := cache.NewExpireCache[string, jwtmanager.Claims](cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating verification cache: %w", err)
	}
	rt.closers = append(rt.closers, verified.Close)

	var verifyOpts []jwtmanager.VerifyOption
	if cfg.Verification.Audience != "" {
		verifyOpts = append(verifyOpts, jwtmanager.WithAudience(cfg.Verification.Audience))
	}
	if len(cfg.Verification.Algorithms) > 0 {
		verifyOpts = append(verifyOpts, jwtmanager.WithAlgorithms(cfg.Verification.Algorithms...))
	}
	if cfg.Verification.ClockSkew > 0 {
		verifyOpts = append(verifyOpts, jwtmanager.WithAcceptableSkew(cfg.Verification.ClockSkew))
	}

	opts := []jwtmanager.Option{
		jwtmanager.WithCache(verified),
		jwtmanager.WithLogger(logger),
		jwtmanager.WithDefaultVerifyOptions(verifyOpts...),
	}
	m, err := jwtmanager.New(reg, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, m.Close)
	return m, nil
}
