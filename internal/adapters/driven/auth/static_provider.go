// Package auth provides token providers for the Bitbucket and catalog
// APIs: a static provider for app passwords / access tokens and an OAuth
// client-credentials provider with transparent refresh.
package auth

import (
	"context"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

// Ensure StaticProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticProvider)(nil)

// StaticProvider provides a fixed access token (workspace access token or
// app password). Static tokens don't expire and don't require refresh.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a token provider for a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken returns the static token.
func (p *StaticProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", domain.ErrAuthRequired
	}
	return p.token, nil
}

// IsAuthenticated returns true if a token is configured.
func (p *StaticProvider) IsAuthenticated() bool {
	return p.token != ""
}
