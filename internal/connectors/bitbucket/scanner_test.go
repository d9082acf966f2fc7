package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jbogarthyde/backstage/internal/core/domain"
)

// staticTokens is a fixed-token provider for tests.
type staticTokens struct{ token string }

func (s staticTokens) GetToken(_ context.Context) (string, error) { return s.token, nil }
func (s staticTokens) IsAuthenticated() bool                      { return s.token != "" }

// newTestClient points a client at the test server and removes the
// proactive throttle so multi-page tests run instantly.
func newTestClient(serverURL string) *Client {
	c := NewClient(staticTokens{token: "test-token"}, WithBaseURL(serverURL))
	c.rateLimiter.bucket = rate.NewLimiter(rate.Inf, 1)
	return c
}

func searchHit(slug, projectKey, mainbranch, webURL, filePath string, pathMatch bool) map[string]any {
	hit := map[string]any{
		"path_matches": []map[string]any{},
		"file": map[string]any{
			"path": filePath,
			"commit": map[string]any{
				"repository": map[string]any{
					"slug":    slug,
					"project": map[string]any{"key": projectKey},
					"links": map[string]any{
						"html": map[string]any{"href": webURL},
					},
				},
			},
		},
	}
	if pathMatch {
		hit["path_matches"] = []map[string]any{{"text": filePath, "match": true}}
	}
	if mainbranch != "" {
		repo := hit["file"].(map[string]any)["commit"].(map[string]any)["repository"].(map[string]any)
		repo["mainbranch"] = map[string]any{"name": mainbranch}
	}
	return hit
}

func writePage(t *testing.T, w http.ResponseWriter, next string, hits ...map[string]any) {
	t.Helper()
	page := map[string]any{
		"size":   len(hits),
		"values": hits,
	}
	if next != "" {
		page["next"] = next
	}
	require.NoError(t, json.NewEncoder(w).Encode(page))
}

func drain(t *testing.T, scanner *Scanner, ctx context.Context, scopeRepo string) ([]domain.DiscoveryTarget, error) {
	t.Helper()
	targetCh, errCh := scanner.Scan(ctx, scopeRepo)
	var out []domain.DiscoveryTarget
	for target := range targetCh {
		out = append(out, target)
	}
	return out, <-errCh
}

func TestScan_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/acme/search/code", r.URL.Path)
		assert.Equal(t, `"catalog-info.yaml" path:catalog-info.yaml`, r.URL.Query().Get("search_query"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		writePage(t, w, "",
			searchHit("widgets", "ENG", "main", "https://bitbucket.org/acme/widgets", "catalog-info.yaml", true),
		)
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "https://bitbucket.org/acme/widgets/src/main/catalog-info.yaml", targets[0].FileURL)
	assert.Equal(t, "https://bitbucket.org/acme/widgets", targets[0].RepoURL)
}

func TestScan_FollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			writePage(t, w, server.URL+r.URL.Path+"?page=2",
				searchHit("alpha", "ENG", "main", "https://bitbucket.org/acme/alpha", "catalog-info.yaml", true),
			)
		case "2":
			writePage(t, w, "",
				searchHit("beta", "ENG", "main", "https://bitbucket.org/acme/beta", "catalog-info.yaml", true),
			)
		default:
			http.Error(w, "unexpected page", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "https://bitbucket.org/acme/alpha/src/main/catalog-info.yaml", targets[0].FileURL)
	assert.Equal(t, "https://bitbucket.org/acme/beta/src/main/catalog-info.yaml", targets[1].FileURL)
}

func TestScan_SkipsContentOnlyMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writePage(t, w, "",
			searchHit("widgets", "ENG", "main", "https://bitbucket.org/acme/widgets", "catalog-info.yaml", true),
			searchHit("gadgets", "ENG", "main", "https://bitbucket.org/acme/gadgets", "some-other-file.txt", false),
		)
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "https://bitbucket.org/acme/widgets", targets[0].RepoURL)
}

func TestScan_AppliesRepoFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writePage(t, w, "",
			searchHit("billing-service", "ENG", "main", "https://bitbucket.org/acme/billing-service", "catalog-info.yaml", true),
			searchHit("billing-service", "OPS", "main", "https://bitbucket.org/acme/ops-billing", "catalog-info.yaml", true),
			searchHit("scratch", "ENG", "main", "https://bitbucket.org/acme/scratch", "catalog-info.yaml", true),
		)
	}))
	defer server.Close()

	config := domain.ProviderConfig{
		ID:        "main",
		Workspace: "acme",
		Filters: domain.RepoFilters{
			ProjectKey: regexp.MustCompile("^ENG$"),
			RepoSlug:   regexp.MustCompile("-service$"),
		},
	}
	scanner := NewScanner(newTestClient(server.URL), config)
	targets, err := drain(t, scanner, context.Background(), "")

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "https://bitbucket.org/acme/billing-service", targets[0].RepoURL)
}

func TestScan_ScopedToRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"catalog-info.yaml" path:catalog-info.yaml repo:widgets`,
			r.URL.Query().Get("search_query"))
		writePage(t, w, "")
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "widgets")

	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestScan_MissingDefaultBranchFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writePage(t, w, "",
			searchHit("empty-repo", "ENG", "", "https://bitbucket.org/acme/empty-repo", "catalog-info.yaml", true),
		)
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "https://bitbucket.org/acme/empty-repo/src/master/catalog-info.yaml", targets[0].FileURL)
}

func TestScan_PageErrorEndsScan(t *testing.T) {
	var server *httptest.Server
	calls := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"message": "search backend unavailable"}}`)
			return
		}
		writePage(t, w, server.URL+r.URL.Path+"?page=2",
			searchHit("alpha", "ENG", "main", "https://bitbucket.org/acme/alpha", "catalog-info.yaml", true),
		)
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	// First page's target was streamed, then the failure surfaced.
	assert.Len(t, targets, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search backend unavailable")
	assert.Equal(t, 2, calls)
}

func TestScan_RateLimitedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRateRemaining, "0")
		w.Header().Set(HeaderRateLimit, "1000")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, context.Background(), "")

	assert.Empty(t, targets)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestScan_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writePage(t, w, "")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(newTestClient(server.URL), domain.ProviderConfig{ID: "main", Workspace: "acme"})
	targets, err := drain(t, scanner, ctx, "")

	assert.Empty(t, targets)
	assert.ErrorIs(t, err, context.Canceled)
}
