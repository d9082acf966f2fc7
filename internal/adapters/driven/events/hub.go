// Package events delivers hosting-service notifications to subscribed
// engines: an in-memory topic hub and the HTTP webhook receiver that feeds
// it.
package events

import (
	"context"
	"sync"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

// Ensure Hub implements the interface.
var _ driven.EventBus = (*Hub)(nil)

// Hub is an in-process event bus. Publish delivers to subscribers
// sequentially, in subscription order; there is no buffering or redelivery,
// so a handler error surfaces directly to the publisher.
type Hub struct {
	mu       sync.RWMutex
	handlers map[string][]driven.EventHandler
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		handlers: make(map[string][]driven.EventHandler),
	}
}

// Subscribe registers a handler for a topic.
func (h *Hub) Subscribe(topic string, handler driven.EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[topic] = append(h.handlers[topic], handler)
}

// Publish delivers an event to the topic's subscribers and returns the
// first handler error. Later subscribers still run after an earlier one
// fails; the publisher sees the first failure.
func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	h.mu.RLock()
	handlers := h.handlers[event.Topic]
	h.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
