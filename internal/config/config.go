// Package config loads the contentgraph process configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/store"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Config is the complete process configuration.
type Config struct {
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Namespaces NamespacesConfig `yaml:"namespaces"`
	Values     ValuesConfig     `yaml:"values"`
	Properties PropertiesConfig `yaml:"properties"`
	Server     ServerConfig     `yaml:"server"`
}

// WorkspaceConfig configures the workspace stores.
type WorkspaceConfig struct {
	// Root holds one directory per workspace.
	Root string `yaml:"root"`
	// Profile is the store resource profile.
	Profile string `yaml:"profile"`
	// MaxOpen bounds the number of workspaces kept open at once.
	MaxOpen int `yaml:"max_open"`
	// ReadOnly opens every workspace read-only.
	ReadOnly bool `yaml:"read_only"`
	// SyncWrites enables synchronous badger writes.
	SyncWrites bool `yaml:"sync_writes"`
}

// NamespacesConfig configures namespace registries.
type NamespacesConfig struct {
	// PrefixTemplate generates prefixes for unregistered URIs, e.g. "ns%03d".
	PrefixTemplate string `yaml:"prefix_template"`
	// Register lists bindings added to every workspace on open.
	Register []namespace.Namespace `yaml:"register,omitempty"`
}

// ValuesConfig configures the value factories.
type ValuesConfig struct {
	// Location is the IANA zone of dates parsed without one.
	Location string `yaml:"location"`
	// NameCacheSize bounds the qualified-name parse cache. Zero disables it.
	NameCacheSize int `yaml:"name_cache_size"`
	// NameCacheTTL expires cached parses.
	NameCacheTTL time.Duration `yaml:"name_cache_ttl"`
}

// PropertiesConfig configures the system properties used by ${...}
// substitution.
type PropertiesConfig struct {
	// EnvFiles are .env files read in order; later files win.
	EnvFiles []string `yaml:"env_files,omitempty"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:    "./data",
			Profile: store.ProfileServing,
			MaxOpen: 10,
		},
		Namespaces: NamespacesConfig{
			PrefixTemplate: namespace.DefaultPrefixTemplate,
		},
		Values: ValuesConfig{
			Location:      "Local",
			NameCacheSize: value.DefaultNameCacheSize,
			NameCacheTTL:  value.DefaultNameCacheTTL,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace.root is required")
	}
	if c.Workspace.MaxOpen <= 0 {
		return fmt.Errorf("workspace.max_open must be positive, got %d", c.Workspace.MaxOpen)
	}
	if err := c.StoreConfig(c.Workspace.Root).Validate(); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	sample := fmt.Sprintf(c.Namespaces.PrefixTemplate, 1)
	if strings.Contains(sample, "%!") || sample == fmt.Sprintf(c.Namespaces.PrefixTemplate, 2) {
		return fmt.Errorf("namespaces.prefix_template must hold one integer verb, got %q", c.Namespaces.PrefixTemplate)
	}
	if err := namespace.ValidatePrefix(sample); err != nil {
		return fmt.Errorf("namespaces.prefix_template: %w", err)
	}
	for i, ns := range c.Namespaces.Register {
		if ns.URI == "" {
			return fmt.Errorf("namespaces.register[%d]: uri is required", i)
		}
		if err := namespace.ValidatePrefix(ns.Prefix); err != nil {
			return fmt.Errorf("namespaces.register[%d]: %w", i, err)
		}
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("values.location: %w", err)
	}
	if c.Values.NameCacheSize < 0 {
		return fmt.Errorf("values.name_cache_size must be non-negative, got %d", c.Values.NameCacheSize)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	return nil
}

// Location resolves Values.Location. An empty name means UTC.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Values.Location)
}

// StoreConfig returns the store configuration of the workspace in dir.
func (c *Config) StoreConfig(dir string) *store.Config {
	cfg := store.DefaultConfig(dir)
	cfg.Profile = c.Workspace.Profile
	cfg.ReadOnly = c.Workspace.ReadOnly
	cfg.SyncWrites = c.Workspace.SyncWrites
	if cfg.Profile == store.ProfileLowMem {
		cfg.BlockCacheSize = 64 << 20
		cfg.IndexCacheSize = 64 << 20
	}
	return cfg
}

// ValueOptions returns the value factory options described by Values.
func (c *Config) ValueOptions() ([]value.Option, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return []value.Option{
		value.WithLocation(loc),
		value.WithNameCache(c.Values.NameCacheSize, c.Values.NameCacheTTL),
	}, nil
}

// SystemProperties reads Properties.EnvFiles. Relative paths are resolved
// against base.
func (c *Config) SystemProperties(base string) (map[string]string, error) {
	if len(c.Properties.EnvFiles) == 0 {
		return map[string]string{}, nil
	}
	files := make([]string, len(c.Properties.EnvFiles))
	for i, f := range c.Properties.EnvFiles {
		if !filepath.IsAbs(f) && base != "" {
			f = filepath.Join(base, f)
		}
		files[i] = f
	}
	props, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to read env files: %w", err)
	}
	return props, nil
}

// ApplyEnv overrides fields from CONTENTGRAPH_* variables and PORT.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("CONTENTGRAPH_ROOT"); ok && v != "" {
		c.Workspace.Root = v
	}
	if v, ok := lookup("CONTENTGRAPH_PROFILE"); ok && v != "" {
		c.Workspace.Profile = v
	}
	if v, ok := lookup("CONTENTGRAPH_READ_ONLY"); ok && v != "" {
		ro, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONTENTGRAPH_READ_ONLY: %w", err)
		}
		c.Workspace.ReadOnly = ro
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads path when it is set, applies the environment and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
