// Package file loads daemon configuration from a TOML file and watches it
// for changes.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// DefaultPath returns the default config file location
// (~/.catalogsync/config.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".catalogsync", "config.toml"), nil
}

// Config is the parsed and validated daemon configuration.
type Config struct {
	Catalog   CatalogConfig
	Bitbucket BitbucketConfig
	Providers []domain.ProviderConfig
}

// CatalogConfig configures the catalog backend connection.
type CatalogConfig struct {
	BaseURL string
	Token   string
}

// BitbucketConfig configures Bitbucket API access.
type BitbucketConfig struct {
	// BaseURL overrides the API root. Empty means the public cloud API.
	BaseURL string

	// Auth selects the credential type: "static" (workspace access token
	// or app password) or "oauth" (client credentials).
	Auth string

	Token        string
	ClientID     string
	ClientSecret string
}

// Raw TOML shapes. Kept separate from the validated Config so pattern
// compilation and duration parsing happen exactly once, at load.

type rawConfig struct {
	Catalog   rawCatalog    `toml:"catalog"`
	Bitbucket rawBitbucket  `toml:"bitbucket"`
	Providers []rawProvider `toml:"providers"`
}

type rawCatalog struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

type rawBitbucket struct {
	BaseURL      string `toml:"base_url"`
	Auth         string `toml:"auth"`
	Token        string `toml:"token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type rawProvider struct {
	ID          string      `toml:"id"`
	Workspace   string      `toml:"workspace"`
	CatalogPath string      `toml:"catalog_path"`
	Filters     rawFilters  `toml:"filters"`
	Schedule    rawSchedule `toml:"schedule"`
}

type rawFilters struct {
	ProjectKey string `toml:"project_key"`
	RepoSlug   string `toml:"repo_slug"`
}

type rawSchedule struct {
	Interval string `toml:"interval"`
}

// Load reads, parses and validates the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
	}

	cfg := &Config{
		Catalog: CatalogConfig{
			BaseURL: raw.Catalog.BaseURL,
			Token:   raw.Catalog.Token,
		},
		Bitbucket: BitbucketConfig{
			BaseURL:      raw.Bitbucket.BaseURL,
			Auth:         raw.Bitbucket.Auth,
			Token:        raw.Bitbucket.Token,
			ClientID:     raw.Bitbucket.ClientID,
			ClientSecret: raw.Bitbucket.ClientSecret,
		},
	}

	if cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("%w: catalog.base_url is required", domain.ErrInvalidConfig)
	}
	if len(raw.Providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider is required", domain.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(raw.Providers))
	for _, rp := range raw.Providers {
		provider, err := parseProvider(rp)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[provider.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate provider id %q", domain.ErrInvalidConfig, provider.ID)
		}
		seen[provider.ID] = struct{}{}
		cfg.Providers = append(cfg.Providers, provider)
	}

	return cfg, nil
}

// parseProvider validates one provider block and compiles its patterns.
func parseProvider(rp rawProvider) (domain.ProviderConfig, error) {
	provider := domain.ProviderConfig{
		ID:          rp.ID,
		Workspace:   rp.Workspace,
		CatalogPath: rp.CatalogPath,
	}

	if rp.Filters.ProjectKey != "" {
		pattern, err := regexp.Compile(rp.Filters.ProjectKey)
		if err != nil {
			return provider, fmt.Errorf("%w: provider %q: filters.project_key: %v",
				domain.ErrInvalidConfig, rp.ID, err)
		}
		provider.Filters.ProjectKey = pattern
	}
	if rp.Filters.RepoSlug != "" {
		pattern, err := regexp.Compile(rp.Filters.RepoSlug)
		if err != nil {
			return provider, fmt.Errorf("%w: provider %q: filters.repo_slug: %v",
				domain.ErrInvalidConfig, rp.ID, err)
		}
		provider.Filters.RepoSlug = pattern
	}

	if rp.Schedule.Interval != "" {
		interval, err := time.ParseDuration(rp.Schedule.Interval)
		if err != nil {
			return provider, fmt.Errorf("%w: provider %q: schedule.interval: %v",
				domain.ErrInvalidConfig, rp.ID, err)
		}
		provider.Interval = interval
	}

	if err := provider.Validate(); err != nil {
		return provider, err
	}
	return provider, nil
}
