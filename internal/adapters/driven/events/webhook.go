package events

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
	"github.com/jbogarthyde/backstage/internal/logger"
)

// HeaderEventKey is the webhook header carrying the delivery's event kind.
const HeaderEventKey = "X-Event-Key"

// pushPayload mirrors the relevant slice of Bitbucket's repo:push webhook
// body.
type pushPayload struct {
	Repository struct {
		Slug    string `json:"slug"`
		Project struct {
			Key string `json:"key"`
		} `json:"project"`
		Workspace struct {
			Slug string `json:"slug"`
		} `json:"workspace"`
		Links struct {
			HTML struct {
				Href string `json:"href"`
			} `json:"html"`
		} `json:"links"`
	} `json:"repository"`
}

// WebhookHandler turns Bitbucket webhook deliveries into hub events on
// domain.TopicRepoPush. Deliveries with a different event kind are
// acknowledged and dropped; handler failures surface as a 500 so the
// sender's retry policy applies.
type WebhookHandler struct {
	bus driven.EventBus
}

// NewWebhookHandler creates a webhook receiver publishing to the bus.
func NewWebhookHandler(bus driven.EventBus) *WebhookHandler {
	return &WebhookHandler{bus: bus}
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventKey := r.Header.Get(HeaderEventKey)
	if eventKey != domain.EventKindRepoPush {
		logger.Debug("webhook: ignoring delivery with event key %q", eventKey)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	event := domain.Event{
		ID:    uuid.NewString(),
		Topic: domain.TopicRepoPush,
		Metadata: map[string]string{
			domain.MetaEventKey: eventKey,
		},
		Push: domain.PushEvent{
			Workspace:  payload.Repository.Workspace.Slug,
			RepoSlug:   payload.Repository.Slug,
			ProjectKey: payload.Repository.Project.Key,
			RepoURL:    payload.Repository.Links.HTML.Href,
		},
	}

	logger.Debug("webhook: delivery %s for %s/%s", event.ID, event.Push.Workspace, event.Push.RepoSlug)

	if err := h.bus.Publish(r.Context(), event); err != nil {
		logger.Error("webhook: delivery %s failed: %v", event.ID, err)
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
