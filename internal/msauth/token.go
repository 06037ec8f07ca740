// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package msauth manages OAuth2 credentials for the Microsoft identity
// platform. The long-lived refresh token is exchanged for short-lived
// access tokens, which are cached until shortly before expiry.
package msauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Identity platform endpoints. Declared as vars so tests can substitute
// an httptest server.
var (
	authURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	tokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

// scopes grants drive read/write plus refresh-token issuance.
var scopes = []string{"Files.ReadWrite", "offline_access"}

// expiryBuffer is how long before the recorded expiry a cached access
// token is considered stale and refreshed.
const expiryBuffer = 5 * time.Minute

// defaultLifetime is assumed when the token endpoint omits expires_in.
const defaultLifetime = time.Hour

// Credentials identifies the registered application and the account it
// acts for.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate reports an error naming the first missing credential field.
// Missing credentials are a fatal precondition for any remote call.
func (c Credentials) Validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("missing drive client ID")
	case c.ClientSecret == "":
		return fmt.Errorf("missing drive client secret")
	case c.RefreshToken == "":
		return fmt.Errorf("missing drive refresh token")
	}
	return nil
}

// AuthError indicates the token endpoint rejected a refresh-token
// exchange. It is fatal for a whole run: no subsequent remote call can
// succeed without an access token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenSource exchanges a refresh token for access tokens and caches
// the result. It implements oauth2.TokenSource. The cache is the only
// mutable shared state in the system; access is mutex-serialized so the
// source is safe for concurrent callers.
type TokenSource struct {
	ctx  context.Context
	conf *oauth2.Config

	mu           sync.Mutex
	refreshToken string
	tok          *oauth2.Token
}

// NewTokenSource validates creds and returns a caching token source.
// No network call is made until the first Token invocation.
func NewTokenSource(ctx context.Context, creds Credentials) (*TokenSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &TokenSource{
		ctx:          ctx,
		conf:         oauthConfig(creds.ClientID, creds.ClientSecret),
		refreshToken: creds.RefreshToken,
	}, nil
}

// Token returns the cached access token, refreshing it first when it is
// within expiryBuffer of expiry. A refresh failure is returned as
// *AuthError; there is no automatic retry.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.tok != nil && time.Until(ts.tok.Expiry) > expiryBuffer {
		return ts.tok, nil
	}

	seed := &oauth2.Token{
		RefreshToken: ts.refreshToken,
		Expiry:       time.Unix(1, 0), // force the refresh grant
	}
	tok, err := ts.conf.TokenSource(ts.ctx, seed).Token()
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(defaultLifetime)
	}
	// The identity platform rotates refresh tokens; keep the newest.
	if tok.RefreshToken != "" {
		ts.refreshToken = tok.RefreshToken
	}

	ts.tok = tok
	return tok, nil
}

func oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
		Scopes: scopes,
	}
}
