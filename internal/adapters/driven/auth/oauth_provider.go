package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

// DefaultTokenURL is Bitbucket Cloud's OAuth token endpoint.
const DefaultTokenURL = "https://bitbucket.org/site/oauth2/access_token"

// Ensure OAuthProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*OAuthProvider)(nil)

// OAuthProvider provides short-lived bearer tokens via the OAuth 2.0
// client-credentials grant. The underlying token source caches tokens and
// refreshes them transparently when they expire.
type OAuthProvider struct {
	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewOAuthProvider creates an OAuth client-credentials token provider.
// tokenURL defaults to DefaultTokenURL when empty.
func NewOAuthProvider(clientID, clientSecret, tokenURL string) *OAuthProvider {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &OAuthProvider{
		source: cfg.TokenSource(context.Background()),
	}
}

// GetToken returns a valid access token, refreshing if needed.
func (p *OAuthProvider) GetToken(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	token, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("oauth token: %w", err)
	}
	return token.AccessToken, nil
}

// IsAuthenticated returns true if a valid token can be obtained.
func (p *OAuthProvider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	token, err := p.source.Token()
	return err == nil && token.Valid()
}
