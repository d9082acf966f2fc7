package driven

import (
	"context"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// EventHandler consumes one event delivery. Errors propagate to the
// publisher, which decides retry/ack semantics.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus delivers typed payloads to subscribers when a named topic fires.
// Delivery is per-subscriber sequential; the bus carries no domain logic.
type EventBus interface {
	// Subscribe registers a handler for a topic. Handlers registered for
	// the same topic each receive every event published on it.
	Subscribe(topic string, handler EventHandler)

	// Publish delivers an event to the topic's subscribers, in
	// subscription order, and returns the first handler error.
	Publish(ctx context.Context, event domain.Event) error
}
