package domain

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

// ServiceID identifies the one hosting service this engine models.
const ServiceID = "bitbucket-cloud"

// DefaultCatalogPath is the catalog file path pattern used when a provider
// config does not specify one.
const DefaultCatalogPath = "catalog-info.yaml"

// RepoFilters restricts discovery to repositories matching the configured
// patterns. Both patterns are independently optional; a nil pattern is
// always a pass.
type RepoFilters struct {
	ProjectKey *regexp.Regexp
	RepoSlug   *regexp.Regexp
}

// Matches reports whether the repository passes the configured filters.
func (f RepoFilters) Matches(repo Repository) bool {
	if f.ProjectKey != nil && !f.ProjectKey.MatchString(repo.ProjectKey) {
		return false
	}
	if f.RepoSlug != nil && !f.RepoSlug.MatchString(repo.Slug) {
		return false
	}
	return true
}

// ProviderConfig is one configured discovery provider instance. Immutable
// after load; each config produces an independently scheduled, independently
// named engine instance.
type ProviderConfig struct {
	// ID distinguishes this provider instance from others. Required.
	ID string

	// Workspace is the hosting-service workspace to scan. Required.
	Workspace string

	// CatalogPath is the catalog file path pattern to search for.
	// Defaults to DefaultCatalogPath.
	CatalogPath string

	// Filters optionally restricts which repositories are scanned.
	Filters RepoFilters

	// Interval is the full-refresh schedule. Zero means the caller must
	// supply a schedule some other way; a provider with neither fails
	// validation at wiring time.
	Interval time.Duration
}

// Validate checks the config for construction-time errors.
func (c ProviderConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: provider id is required", ErrInvalidConfig)
	}
	if c.Workspace == "" {
		return fmt.Errorf("%w: provider %q: workspace is required", ErrInvalidConfig, c.ID)
	}
	return nil
}

// EffectiveCatalogPath returns CatalogPath or the default.
func (c ProviderConfig) EffectiveCatalogPath() string {
	if c.CatalogPath == "" {
		return DefaultCatalogPath
	}
	return c.CatalogPath
}

// CatalogFilename returns the last segment of the catalog path pattern,
// used as the quoted term of the code search query.
func (c ProviderConfig) CatalogFilename() string {
	return path.Base(c.EffectiveCatalogPath())
}

// ProviderName returns the public name of this provider instance. The
// format "<serviceId>-provider:<configId>" is part of the ownership
// contract: every record the instance creates carries it as ownership key.
func (c ProviderConfig) ProviderName() string {
	return fmt.Sprintf("%s-provider:%s", ServiceID, c.ID)
}

// TaskID returns the scheduled-task identifier for this provider's full
// refresh.
func (c ProviderConfig) TaskID() string {
	return c.ProviderName() + ":refresh"
}
