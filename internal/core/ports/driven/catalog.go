package driven

import (
	"context"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// CatalogConnection is the mutation channel handed to an engine at
// Connect time. It accepts full and delta updates against the provider's
// owned record set.
type CatalogConnection interface {
	// ApplyMutation applies one catalog update. Full mutations are
	// all-or-nothing: either the complete set commits or the call fails and
	// no added/removed state is observable.
	ApplyMutation(ctx context.Context, m domain.Mutation) error
}

// EntityFilter selects existing records by exact field values. Keys are
// field paths ("kind", "annotations.<key>"), values are compared as
// strings.
type EntityFilter map[string]string

// CatalogAPI queries and refreshes records already registered in the
// catalog. Used only by delta refresh; optional.
type CatalogAPI interface {
	// GetEntities returns all records matching the filter.
	GetEntities(ctx context.Context, filter EntityFilter, token string) ([]domain.LocationRecord, error)

	// RefreshEntity requests re-validation of one existing record,
	// identified by its target URL.
	RefreshEntity(ctx context.Context, target string, token string) error
}
