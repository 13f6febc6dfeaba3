package auth

import (
	"strings"
	"sync"

	"github.com/goliatone/go-iap/core"
)

// Credentials owns the OAuth tuple shared by concurrent reconciliations. The
// access token is the only mutable field; reads and the refresh-time swap go
// through the lock so in-flight lookups always observe a complete token.
type Credentials struct {
	mu           sync.RWMutex
	clientID     string
	clientSecret string
	refreshToken string
	accessToken  string
}

func NewCredentials(cfg core.CredentialsConfig) *Credentials {
	return &Credentials{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		refreshToken: strings.TrimSpace(cfg.RefreshToken),
		accessToken:  strings.TrimSpace(cfg.AccessToken),
	}
}

// Complete reports whether all four fields are present, the precondition for
// any remote status lookup.
func (c *Credentials) Complete() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID != "" && c.clientSecret != "" && c.refreshToken != "" && c.accessToken != ""
}

func (c *Credentials) AccessToken() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetAccessToken swaps in a freshly redeemed access token. Subsequent lookups
// observe the new token immediately.
func (c *Credentials) SetAccessToken(token string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = strings.TrimSpace(token)
}

func (c *Credentials) clientPair() (string, string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID, c.clientSecret, c.refreshToken
}
