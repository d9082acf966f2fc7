package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Bitbucket Cloud API root.
	DefaultBaseURL = "https://api.bitbucket.org/2.0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageLen is the requested page size for search results.
	DefaultPageLen = 100

	// maxErrorBody bounds how much of an error response body is read for
	// the error message.
	maxErrorBody = 4096
)

// Client wraps the Bitbucket Cloud 2.0 REST API with auth and rate
// limiting.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Bitbucket API client with a token provider.
func NewClient(tokenProvider driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL builds the first-page URL for a workspace code search.
func (c *Client) SearchURL(workspace, query string) string {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("fields", SearchFields())
	params.Set("pagelen", strconv.Itoa(DefaultPageLen))
	return fmt.Sprintf("%s/workspaces/%s/search/code?%s",
		c.baseURL, url.PathEscape(workspace), params.Encode())
}

// fetchSearchPage fetches one page of search results. pageURL is either a
// SearchURL or a previous page's Next link; the API returns absolute next
// links, so pages are followed verbatim.
func (c *Client) fetchSearchPage(ctx context.Context, pageURL string) (*searchPage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var page searchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode search page: %w", err)
	}
	return &page, nil
}

// apiError turns a non-200 response into a typed APIError.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	// Error payloads carry {"error": {"message": "..."}} when the API had
	// something to say; fall back to the raw body.
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		message = payload.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		URL:        resp.Request.URL.String(),
	}
}
