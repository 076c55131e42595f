package fetchtree

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuthConfig signs REST calls against a single endpoint with a static
// bearer token obtained out-of-band. One ProxyPool entry is kept per
// (endpoint, OAuth-signed or not) pair for the lifetime of the source, so
// the signed client is built once and reused across calls. The token
// source is static: the token is never refreshed.
type OAuthConfig struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

func (c *OAuthConfig) tokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
	})
}

func (c *OAuthConfig) client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c.tokenSource())
}
