package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

type staticTokens struct{ token string }

func (s staticTokens) GetToken(_ context.Context) (string, error) { return s.token, nil }
func (s staticTokens) IsAuthenticated() bool                      { return s.token != "" }

func TestApplyMutation_Full(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/entities/mutations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "catalog-token"})

	record := domain.NewLocationRecord(domain.DiscoveryTarget{
		FileURL: "https://bitbucket.org/acme/widgets/src/main/catalog-info.yaml",
		RepoURL: "https://bitbucket.org/acme/widgets",
	}, "bitbucket-cloud-provider:main")

	err := client.ApplyMutation(context.Background(), domain.FullMutation([]domain.LocationRecord{record}))
	require.NoError(t, err)

	assert.Equal(t, "Bearer catalog-token", gotAuth)
	assert.Equal(t, "full", gotBody["type"])

	entities, ok := gotBody["entities"].([]any)
	require.True(t, ok)
	require.Len(t, entities, 1)
	entity := entities[0].(map[string]any)
	assert.Equal(t, "Location", entity["kind"])
	assert.Equal(t, "url", entity["type"])
	assert.Equal(t, "required", entity["presence"])
	assert.Equal(t, "https://bitbucket.org/acme/widgets/src/main/catalog-info.yaml", entity["target"])
	assert.Equal(t, "bitbucket-cloud-provider:main", entity["ownershipKey"])

	annotations := entity["annotations"].(map[string]any)
	assert.Equal(t, "https://bitbucket.org/acme/widgets", annotations["bitbucket.org/repo-url"])
}

func TestApplyMutation_Delta(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "catalog-token"})

	err := client.ApplyMutation(context.Background(), domain.DeltaMutation(
		[]domain.LocationRecord{{Kind: "Location", Target: "new-url", OwnershipKey: "p"}},
		[]domain.Removal{{
			Record:       domain.LocationRecord{Kind: "Location", Target: "old-url"},
			OwnershipKey: "p",
		}},
	))
	require.NoError(t, err)

	assert.Equal(t, "delta", gotBody["type"])
	assert.Nil(t, gotBody["entities"])

	added := gotBody["added"].([]any)
	require.Len(t, added, 1)
	assert.Equal(t, "new-url", added[0].(map[string]any)["target"])

	removed := gotBody["removed"].([]any)
	require.Len(t, removed, 1)
	removal := removed[0].(map[string]any)
	assert.Equal(t, "old-url", removal["record"].(map[string]any)["target"])
	assert.Equal(t, "p", removal["ownershipKey"])
}

func TestApplyMutation_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "conflicting mutation in flight", http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "t"})
	err := client.ApplyMutation(context.Background(), domain.FullMutation(nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "conflicting mutation in flight")
}

func TestGetEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/entities", r.URL.Path)
		assert.Equal(t, "Bearer query-token", r.Header.Get("Authorization"))

		filters := r.URL.Query()["filter"]
		sort.Strings(filters)
		assert.Equal(t, []string{
			"annotations.bitbucket.org/repo-url=https://bitbucket.org/acme/widgets",
			"kind=Location",
		}, filters)

		_, _ = w.Write([]byte(`[
			{"kind": "Location", "type": "url", "target": "url1", "presence": "required",
			 "annotations": {"bitbucket.org/repo-url": "https://bitbucket.org/acme/widgets"},
			 "ownershipKey": "bitbucket-cloud-provider:main"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "unused"})
	records, err := client.GetEntities(context.Background(), driven.EntityFilter{
		"kind": "Location",
		"annotations.bitbucket.org/repo-url": "https://bitbucket.org/acme/widgets",
	}, "query-token")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "url1", records[0].Target)
	assert.Equal(t, "bitbucket-cloud-provider:main", records[0].OwnershipKey)
	assert.Equal(t, "https://bitbucket.org/acme/widgets",
		records[0].Annotations["bitbucket.org/repo-url"])
}

func TestRefreshEntity(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refresh", r.URL.Path)
		assert.Equal(t, "Bearer query-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticTokens{token: "unused"})
	err := client.RefreshEntity(context.Background(), "url1", "query-token")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"target": "url1"}, gotBody)
}
