// Package catalog is the HTTP adapter for the downstream catalog backend.
// It implements the mutation connection handed to engines at Connect time
// and the query/refresh API used by delta refresh.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response body is kept for
	// the error message.
	maxErrorBody = 4096
)

// Client talks to the catalog backend over HTTP. It implements both
// driven.CatalogConnection and driven.CatalogAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     driven.TokenProvider
}

// Ensure Client implements both catalog ports.
var (
	_ driven.CatalogConnection = (*Client)(nil)
	_ driven.CatalogAPI        = (*Client)(nil)
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a catalog client. tokens supplies the bearer token for
// mutation calls; query/refresh calls take their token per call, issued by
// the engine's own token provider.
func NewClient(baseURL string, tokens driven.TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types. Domain types stay free of serialization concerns; the
// adapter owns the JSON shape of the catalog contract.

type wireMutation struct {
	Type     string        `json:"type"`
	Entities []wireRecord  `json:"entities,omitempty"`
	Added    []wireRecord  `json:"added,omitempty"`
	Removed  []wireRemoval `json:"removed,omitempty"`
}

type wireRecord struct {
	Kind        string            `json:"kind"`
	Type        string            `json:"type"`
	Target      string            `json:"target"`
	Presence    string            `json:"presence"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Owner       string            `json:"ownershipKey"`
}

type wireRemoval struct {
	Record       wireRecord `json:"record"`
	OwnershipKey string     `json:"ownershipKey"`
}

func toWireRecord(r domain.LocationRecord) wireRecord {
	return wireRecord{
		Kind:        r.Kind,
		Type:        r.Type,
		Target:      r.Target,
		Presence:    r.Presence,
		Annotations: r.Annotations,
		Owner:       r.OwnershipKey,
	}
}

func fromWireRecord(r wireRecord) domain.LocationRecord {
	return domain.LocationRecord{
		Kind:         r.Kind,
		Type:         r.Type,
		Target:       r.Target,
		Presence:     r.Presence,
		Annotations:  r.Annotations,
		OwnershipKey: r.Owner,
	}
}

// ApplyMutation posts one full or delta mutation. The backend applies a
// mutation atomically; a non-2xx response means nothing was applied.
func (c *Client) ApplyMutation(ctx context.Context, m domain.Mutation) error {
	body := wireMutation{Type: string(m.Type)}
	for _, r := range m.Entities {
		body.Entities = append(body.Entities, toWireRecord(r))
	}
	for _, r := range m.Added {
		body.Added = append(body.Added, toWireRecord(r))
	}
	for _, r := range m.Removed {
		body.Removed = append(body.Removed, wireRemoval{
			Record:       toWireRecord(r.Record),
			OwnershipKey: r.OwnershipKey,
		})
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get catalog token: %w", err)
	}

	return c.post(ctx, "/entities/mutations", token, body, nil)
}

// GetEntities returns all records matching the filter.
func (c *Client) GetEntities(ctx context.Context, filter driven.EntityFilter, token string) ([]domain.LocationRecord, error) {
	params := url.Values{}
	for key, value := range filter {
		params.Add("filter", key+"="+value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/entities?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var records []wireRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	result := make([]domain.LocationRecord, 0, len(records))
	for _, r := range records {
		result = append(result, fromWireRecord(r))
	}
	return result, nil
}

// RefreshEntity requests re-validation of one record by target URL.
func (c *Client) RefreshEntity(ctx context.Context, target string, token string) error {
	return c.post(ctx, "/refresh", token, map[string]string{"target": target}, nil)
}

// post sends a JSON body and optionally decodes a JSON response.
func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError turns a non-2xx response into a descriptive error.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("catalog: API error %d: %s (URL: %s)",
		resp.StatusCode, strings.TrimSpace(string(body)), resp.Request.URL.String())
}
