package providers

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/marcelsud/commit-webhooks/config"
	"gopkg.in/yaml.v3"
)

/* Catalog holds the providers the service accepts deliveries from
 * Built once at startup from providers.yaml or the built-in defaults
 */

// File represents the structure of providers.yaml
type File struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig represents a single provider in the YAML file
type ProviderConfig struct {
	ProviderID       string `yaml:"provider_id"`
	Scheme           string `yaml:"scheme"`
	Path             string `yaml:"path"`
	IDHeader         string `yaml:"id_header"`
	TimestampHeader  string `yaml:"timestamp_header"`
	SignatureHeader  string `yaml:"signature_header"`
	UserAgent        string `yaml:"user_agent"`
	SecretEnv        string `yaml:"secret_env"`
	ToleranceSeconds int    `yaml:"tolerance_seconds" default:"300"`
	SkewSeconds      int    `yaml:"skew_seconds" default:"60"`
	MaxBodyBytes     int64  `yaml:"max_body_bytes" default:"1048576"`
}

// Catalog holds the loaded providers in declaration order
type Catalog struct {
	providers map[string]*Provider
	paths     map[string]string
	order     []string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		providers: make(map[string]*Provider),
		paths:     make(map[string]string),
	}
}

// Default returns the built-in identity and payment catalog
func Default(cfg *config.Config) (*Catalog, error) {
	c := NewCatalog()
	for _, p := range []*Provider{Identity(cfg), Payment(cfg)} {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FromConfig loads PROVIDERS_FILE when set, the built-in catalog otherwise
func FromConfig(cfg *config.Config) (*Catalog, error) {
	if cfg.ProvidersFile == "" {
		return Default(cfg)
	}
	c := NewCatalog()
	if err := c.Load(cfg.ProvidersFile, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Add validates a provider and registers it
func (c *Catalog) Add(p *Provider) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validating provider: %w", err)
	}
	if _, exists := c.providers[p.ID]; exists {
		return fmt.Errorf("duplicate provider_id: %s", p.ID)
	}
	if owner, exists := c.paths[p.Path]; exists {
		return fmt.Errorf("path %s of provider %s already used by %s", p.Path, p.ID, owner)
	}
	c.providers[p.ID] = p
	c.paths[p.Path] = p.ID
	c.order = append(c.order, p.ID)
	return nil
}

// Load reads and parses a providers.yaml file
func (c *Catalog) Load(filePath string, cfg *config.Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading providers file: %w", err)
	}
	return c.Parse(data, cfg)
}

// Parse adds every provider declared in a YAML document.
// Limits a provider leaves out come from cfg when set there, then from the struct defaults.
func (c *Catalog) Parse(data []byte, cfg *config.Config) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing providers YAML: %w", err)
	}
	if len(file.Providers) == 0 {
		return fmt.Errorf("providers file declares no providers")
	}

	for i := range file.Providers {
		pc := &file.Providers[i]
		pc.inherit(cfg)
		if err := defaults.Set(pc); err != nil {
			return fmt.Errorf("applying provider defaults: %w", err)
		}

		provider := &Provider{
			ID:              pc.ProviderID,
			Scheme:          NewScheme(pc.Scheme),
			Path:            pc.Path,
			IDHeader:        pc.IDHeader,
			TimestampHeader: pc.TimestampHeader,
			SignatureHeader: pc.SignatureHeader,
			UserAgent:       pc.UserAgent,
			SecretEnv:       pc.SecretEnv,
			Tolerance:       time.Duration(pc.ToleranceSeconds) * time.Second,
			Skew:            time.Duration(pc.SkewSeconds) * time.Second,
			MaxBodyBytes:    pc.MaxBodyBytes,
		}
		if err := c.Add(provider); err != nil {
			return err
		}
	}

	return nil
}

// List returns all providers in declaration order
func (c *Catalog) List() []*Provider {
	list := make([]*Provider, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.providers[id])
	}
	return list
}

// inherit fills omitted limits from the environment-level settings
func (pc *ProviderConfig) inherit(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if pc.ToleranceSeconds == 0 {
		pc.ToleranceSeconds = cfg.ReplayToleranceSeconds
	}
	if pc.SkewSeconds == 0 {
		pc.SkewSeconds = cfg.ReplaySkewSeconds
	}
	if pc.MaxBodyBytes == 0 {
		pc.MaxBodyBytes = cfg.MaxBodyBytes
	}
}
