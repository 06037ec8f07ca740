// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package msauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// BootstrapRedirectURI is where the interactive authorization flow
// sends the user back. The auth subcommand does not run a listener; the
// operator pastes the code from the redirected URL.
const BootstrapRedirectURI = "http://localhost:8080"

// AuthCodeURL builds the interactive authorization URL the operator
// opens in a browser to grant drive access.
func AuthCodeURL(clientID string) string {
	conf := oauthConfig(clientID, "")
	conf.RedirectURL = BootstrapRedirectURI
	return conf.AuthCodeURL("state", oauth2.SetAuthURLParam("response_mode", "query"))
}

// ExchangeCode trades an authorization code for tokens and returns the
// long-lived refresh token to store as a secret. Consumed out of band;
// the sweep itself only ever sees the resulting refresh token string.
func ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (string, error) {
	conf := oauthConfig(clientID, clientSecret)
	conf.RedirectURL = BootstrapRedirectURI

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("token endpoint returned no refresh token (is offline_access granted?)")
	}
	return tok.RefreshToken, nil
}
