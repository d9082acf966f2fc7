package driving

import (
	"context"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// Refreshable is a provider the scheduler can periodically refresh.
type Refreshable interface {
	// ProviderName returns the provider instance's unique name.
	ProviderName() string

	// TaskID returns the scheduled-task identifier driving this provider.
	TaskID() string

	// Refresh rebuilds the provider's entire owned record set from
	// upstream. Returns the number of records committed.
	Refresh(ctx context.Context) (int, error)
}

// EventConsumer is a provider that reacts to push notifications.
type EventConsumer interface {
	// Topics returns the event topics the consumer wants delivered.
	Topics() []string

	// OnEvent processes one delivery. Errors propagate to the event bus
	// caller; guards (wrong workspace, wrong event kind, filtered
	// repository) are silent no-ops, not errors.
	OnEvent(ctx context.Context, event domain.Event) error
}

// Scheduler manages background refresh tasks.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error
}
