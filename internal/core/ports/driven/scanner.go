package driven

import (
	"context"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// CatalogFileScanner streams catalog-file discovery targets from the
// hosting service's code search.
type CatalogFileScanner interface {
	// Scan searches the configured workspace for catalog files and streams
	// matches as discovery targets. An empty scopeRepo scans the whole
	// workspace; a non-empty scopeRepo restricts the search to that one
	// repository's slug.
	//
	// The returned sequence is lazy, finite and single-pass: pagination is
	// handled internally, pages are consumed in API order, and the target
	// channel is closed when the scan ends. A page-fetch failure is sent on
	// the error channel and terminates the scan; scans are never retried
	// internally. At most one error is sent.
	Scan(ctx context.Context, scopeRepo string) (<-chan domain.DiscoveryTarget, <-chan error)
}
