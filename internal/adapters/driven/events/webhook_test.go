package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

const pushBody = `{
	"repository": {
		"slug": "widgets",
		"project": {"key": "ENG"},
		"workspace": {"slug": "acme"},
		"links": {"html": {"href": "https://bitbucket.org/acme/widgets"}}
	}
}`

func postWebhook(handler http.Handler, eventKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/bitbucket", strings.NewReader(body))
	if eventKey != "" {
		req.Header.Set(HeaderEventKey, eventKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_PublishesPushEvent(t *testing.T) {
	hub := NewHub()
	var got domain.Event
	hub.Subscribe(domain.TopicRepoPush, func(_ context.Context, e domain.Event) error {
		got = e
		return nil
	})

	rec := postWebhook(NewWebhookHandler(hub), "repo:push", pushBody)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, domain.TopicRepoPush, got.Topic)
	assert.Equal(t, "repo:push", got.EventKind())
	assert.Equal(t, "acme", got.Push.Workspace)
	assert.Equal(t, "widgets", got.Push.RepoSlug)
	assert.Equal(t, "ENG", got.Push.ProjectKey)
	assert.Equal(t, "https://bitbucket.org/acme/widgets", got.Push.RepoURL)
}

func TestWebhook_WrongMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/webhooks/bitbucket", nil)
	rec := httptest.NewRecorder()
	NewWebhookHandler(NewHub()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook_OtherEventKindDropped(t *testing.T) {
	hub := NewHub()
	published := false
	hub.Subscribe(domain.TopicRepoPush, func(_ context.Context, _ domain.Event) error {
		published = true
		return nil
	})

	rec := postWebhook(NewWebhookHandler(hub), "pullrequest:created", pushBody)

	// Acknowledged so the sender does not retry, but never published.
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, published)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	rec := postWebhook(NewWebhookHandler(NewHub()), "repo:push", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_HandlerErrorIsRetryable(t *testing.T) {
	hub := NewHub()
	hub.Subscribe(domain.TopicRepoPush, func(_ context.Context, _ domain.Event) error {
		return errors.New("catalog unreachable")
	})

	rec := postWebhook(NewWebhookHandler(hub), "repo:push", pushBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
