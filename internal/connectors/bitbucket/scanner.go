package bitbucket

import (
	"context"
	"fmt"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
	"github.com/jbogarthyde/backstage/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.CatalogFileScanner = (*Scanner)(nil)

// Scanner drives the workspace code search and streams catalog-file
// discovery targets. One Scanner serves one provider config; scans are
// independent and a Scanner may run several concurrently.
type Scanner struct {
	client *Client
	config domain.ProviderConfig
}

// NewScanner creates a scanner for one provider's workspace and catalog
// path pattern.
func NewScanner(client *Client, config domain.ProviderConfig) *Scanner {
	return &Scanner{
		client: client,
		config: config,
	}
}

// Scan searches the workspace for catalog files and streams matches.
// Pagination is internal: callers see one logical stream, closed when the
// last page is consumed. A page-fetch error is sent on the error channel
// and ends the scan without retry.
func (s *Scanner) Scan(ctx context.Context, scopeRepo string) (<-chan domain.DiscoveryTarget, <-chan error) {
	targets := make(chan domain.DiscoveryTarget)
	errs := make(chan error, 1)

	query := BuildSearchQuery(s.config.CatalogFilename(), s.config.EffectiveCatalogPath(), scopeRepo)

	go func() {
		defer close(targets)
		defer close(errs)

		pageURL := s.client.SearchURL(s.config.Workspace, query)
		pages := 0

		for pageURL != "" {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			page, err := s.client.fetchSearchPage(ctx, pageURL)
			if err != nil {
				errs <- fmt.Errorf("search %s: %w", s.config.Workspace, err)
				return
			}
			pages++

			for _, result := range page.Values {
				// A hit without path matches matched file contents only.
				if len(result.PathMatches) == 0 {
					continue
				}

				repo := result.File.Commit.Repository.Domain()
				if !s.config.Filters.Matches(repo) {
					continue
				}

				target := domain.DiscoveryTarget{
					FileURL: ResolveFileURL(repo, result.File.Path),
					RepoURL: repo.WebURL,
				}

				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case targets <- target:
				}
			}

			pageURL = page.Next
		}

		logger.Debug("bitbucket: scan of %s complete (%d pages)", s.config.Workspace, pages)
	}()

	return targets, errs
}
