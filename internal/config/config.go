// Package config provides configuration loading and management for the device registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SourceTypeRemote is the type for device info stored in remote Git repositories
	SourceTypeRemote = "remote"

	// SourceTypeLocal is the type for device info stored in local files
	SourceTypeLocal = "local"

	// SourceTypeHTTP is the type for device info fetched from HTTP endpoints
	SourceTypeHTTP = "http"
)

// TokenEnvVar is the environment variable consulted when no token file is configured
const TokenEnvVar = "DEVICE_REGISTRY_TOKEN"

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Catalog lists the directories holding the primary OTA device files
	Catalog []CatalogConfig `yaml:"catalog"`

	// Sources lists the auxiliary device info sources merged into catalog
	// records. Order matters: match_from chaining resolves against sources
	// that appear earlier in this list.
	Sources []SourceConfig `yaml:"sources,omitempty"`

	// Token is an optional access credential for remote sources
	Token string `yaml:"token,omitempty"`

	// TokenFile is the path to a file containing the access credential.
	// Preferred over Token for production deployments.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// Server holds the HTTP server settings
	Server *ServerConfig `yaml:"server,omitempty"`
}

// CatalogConfig defines a single OTA catalog directory
type CatalogConfig struct {
	// Type is the label for this catalog directory (e.g. a release channel)
	Type string `yaml:"type"`

	// Directory is the path containing the OTA JSON files
	Directory string `yaml:"directory"`
}

// SourceConfig defines a single auxiliary device info source
type SourceConfig struct {
	// Name is the identifier for this source. Matched fields are merged
	// into device records under the "<name>_" prefix.
	Name string `yaml:"name"`

	// Type is the source type (remote, local, or http)
	Type string `yaml:"type"`

	// Repo is the repository for remote sources, either "org/name" or a
	// full clone URL
	Repo string `yaml:"repo,omitempty"`

	// Ref is an optional branch name for remote sources
	Ref string `yaml:"ref,omitempty"`

	// File is the file path: inside the repository for remote sources,
	// on the local filesystem for local sources
	File string `yaml:"file,omitempty"`

	// Endpoint is the URL for http sources
	Endpoint string `yaml:"endpoint,omitempty"`

	// Structure is the projection schema passed to the extractor. It is
	// opaque to the source loader.
	Structure any `yaml:"structure,omitempty"`

	// LookupField is the field matched against the device record
	LookupField string `yaml:"lookup_field,omitempty"`

	// MatchFrom optionally names a field on the accumulating merged record
	// whose value is used as the match key instead of LookupField
	MatchFrom string `yaml:"match_from,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address (e.g. ":8080")
	Address string `yaml:"address,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetToken returns the access credential using the following priority:
// 1. Read from TokenFile if specified
// 2. The inline Token value
// 3. The DEVICE_REGISTRY_TOKEN environment variable
//
// An empty result is not an error: remote sources work unauthenticated
// against public repositories.
func (c *Config) GetToken() (string, error) {
	if c.TokenFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(c.TokenFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read token from file %s: %w", c.TokenFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if c.Token != "" {
		return c.Token, nil
	}

	return os.Getenv(TokenEnvVar), nil
}

// GetAddress returns the server listen address, using ":8080" if not specified
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

// validate performs validation on the configuration.
//
// Source entries are deliberately not validated here: a source missing its
// name or carrying an unknown type is skipped with a warning at load time
// rather than failing startup, so that one bad source cannot take the whole
// service down.
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Catalog) == 0 {
		return fmt.Errorf("at least one catalog directory must be configured")
	}

	catalogTypes := make(map[string]bool)
	for i, entry := range c.Catalog {
		if entry.Type == "" {
			return fmt.Errorf("catalog[%d]: type is required", i)
		}
		if entry.Directory == "" {
			return fmt.Errorf("catalog[%d] (%s): directory is required", i, entry.Type)
		}
		if catalogTypes[entry.Type] {
			return fmt.Errorf("catalog[%d]: duplicate catalog type '%s'", i, entry.Type)
		}
		catalogTypes[entry.Type] = true
	}

	return nil
}
