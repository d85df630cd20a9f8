// Package config loads a YAML description of issuers and verification
// settings and builds the issuer registry and verification manager from it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types accepted in the issuers list.
const (
	TypeSymmetric   = "symmetric"
	TypeAsymmetric  = "asymmetric"
	TypeDiscovery   = "discovery"
	TypeMultiTenant = "multitenant"
)

// Config is the root of the YAML document.
type Config struct {
	Issuers      []IssuerConfig     `yaml:"issuers"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Verification VerificationConfig `yaml:"verification"`
	// SnapshotFile is imported when the registry is built and is where
	// exported snapshots are written.
	SnapshotFile string `yaml:"snapshot_file"`
}

// IssuerConfig describes one key source. Sources are consulted in the
// order they are listed.
type IssuerConfig struct {
	Type           string      `yaml:"type"`
	URLs           []string    `yaml:"urls"`
	Patterns       []string    `yaml:"patterns"`
	AllowedIssuers []string    `yaml:"allowed_issuers"`
	MaxTenants     int         `yaml:"max_tenants"`
	Keys           []KeyConfig `yaml:"keys"`
}

// KeyConfig is a statically configured key. Exactly one of Secret,
// SecretEnv, PEM and PEMFile is set.
type KeyConfig struct {
	Issuer    string `yaml:"issuer"`
	KeyID     string `yaml:"kid"`
	Secret    string `yaml:"secret"`
	SecretEnv string `yaml:"secret_env"`
	PEM       string `yaml:"pem"`
	PEMFile   string `yaml:"pem_file"`
}

type DiscoveryConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// RedisURL, when set, shares discovery documents between processes.
	RedisURL string `yaml:"redis_url"`
}

type VerificationConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Algorithms    []string      `yaml:"algorithms"`
	Audience      string        `yaml:"audience"`
	ClockSkew     time.Duration `yaml:"clock_skew"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration without touching the network or the
// file system.
func (c *Config) Validate() error {
	if len(c.Issuers) == 0 {
		return errors.New("config: at least one issuer is required")
	}

	var errs []error
	for i, ic := range c.Issuers {
		if err := ic.validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: issuers[%d]: %w", i, err))
		}
	}
	if c.Discovery.TTL < 0 {
		errs = append(errs, errors.New("config: discovery.ttl cannot be negative"))
	}
	if c.Discovery.HTTPTimeout < 0 {
		errs = append(errs, errors.New("config: discovery.http_timeout cannot be negative"))
	}
	if c.Verification.SweepInterval < 0 {
		errs = append(errs, errors.New("config: verification.sweep_interval cannot be negative"))
	}
	if c.Verification.ClockSkew < 0 {
		errs = append(errs, errors.New("config: verification.clock_skew cannot be negative"))
	}
	return errors.Join(errs...)
}

func (ic IssuerConfig) validate() error {
	switch ic.Type {
	case TypeSymmetric:
		if len(ic.Patterns) > 0 {
			return errors.New("symmetric sources match exact urls only")
		}
		if len(ic.URLs) == 0 {
			return errors.New("urls are required")
		}
	case TypeAsymmetric, TypeDiscovery:
		if len(ic.URLs) == 0 && len(ic.Patterns) == 0 {
			return errors.New("urls or patterns are required")
		}
	case TypeMultiTenant:
		if len(ic.URLs) > 0 || len(ic.Patterns) > 0 {
			return errors.New("multitenant sources match by prefix and take allowed_issuers instead of urls")
		}
		if ic.MaxTenants < 0 {
			return errors.New("max_tenants cannot be negative")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown type %q", ic.Type)
	}

	for _, p := range ic.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("pattern %q: %w", p, err)
		}
	}

	if len(ic.Keys) > 0 && ic.Type != TypeSymmetric && ic.Type != TypeAsymmetric {
		return fmt.Errorf("%s sources do not take static keys", ic.Type)
	}
	for j, k := range ic.Keys {
		if err := k.validate(ic.Type); err != nil {
			return fmt.Errorf("keys[%d]: %w", j, err)
		}
	}
	return nil
}

func (k KeyConfig) validate(sourceType string) error {
	if k.Issuer == "" || k.KeyID == "" {
		return errors.New("issuer and kid are required")
	}

	set := 0
	for _, v := range []string{k.Secret, k.SecretEnv, k.PEM, k.PEMFile} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of secret, secret_env, pem and pem_file is required")
	}

	symmetric := k.Secret != "" || k.SecretEnv != ""
	if sourceType == TypeSymmetric && !symmetric {
		return errors.New("symmetric keys take secret or secret_env")
	}
	if sourceType == TypeAsymmetric && symmetric {
		return errors.New("asymmetric keys take pem or pem_file")
	}
	return nil
}

// material resolves the key bytes from the environment or file system.
func (k KeyConfig) material() ([]byte, error) {
	switch {
	case k.Secret != "":
		return []byte(k.Secret), nil
	case k.SecretEnv != "":
		v, ok := os.LookupEnv(k.SecretEnv)
		if !ok || v == "" {
			return nil, fmt.Errorf("environment variable %s is not set", k.SecretEnv)
		}
		return []byte(v), nil
	case k.PEM != "":
		return []byte(k.PEM), nil
	default:
		data, err := os.ReadFile(k.PEMFile)
		if err != nil {
			return nil, fmt.Errorf("reading pem_file: %w", err)
		}
		return data, nil
	}
}
