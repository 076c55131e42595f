package fetchtree

import (
	"context"
	"net/http"
	"sync"
)

// proxyKey identifies one REST proxy: an endpoint plus whether it is
// OAuth-signed. Two REST nodes that share an endpoint and OAuth config
// reuse the same *http.Client, and with it the same idle-connection pool
// and (for OAuth) the same cached token.
type proxyKey struct {
	endpoint string
	oauth    bool
}

// ProxyPool caches one *http.Client per (endpoint, oauth) pair for the
// lifetime of a Fetcher, avoiding a fresh TCP/TLS handshake and OAuth
// token exchange on every REST fetch.
type ProxyPool struct {
	mu      sync.Mutex
	clients map[proxyKey]*http.Client
	base    *http.Client
}

// NewProxyPool creates an empty pool. base is used for plain (non-OAuth)
// REST endpoints; if nil, http.DefaultClient is used.
func NewProxyPool(base *http.Client) *ProxyPool {
	if base == nil {
		base = http.DefaultClient
	}
	return &ProxyPool{clients: make(map[proxyKey]*http.Client), base: base}
}

// Client returns the pooled client for endpoint, creating it (and its
// OAuth token source) on first use.
func (p *ProxyPool) Client(ctx context.Context, endpoint string, oauthCfg *OAuthConfig) *http.Client {
	key := proxyKey{endpoint: endpoint, oauth: oauthCfg != nil}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c
	}

	var c *http.Client
	if oauthCfg != nil {
		c = oauthCfg.client(ctx)
	} else {
		c = p.base
	}
	p.clients[key] = c
	return c
}
