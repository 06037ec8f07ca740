// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package msauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testCreds() Credentials {
	return Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token-1",
	}
}

// newTokenServer serves the refresh-token grant and counts exchanges.
func newTokenServer(t *testing.T, expiresIn int, status int) (*httptest.Server, *int) {
	t.Helper()
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token request: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		body := fmt.Sprintf(`{"access_token":"at-%d","token_type":"Bearer","refresh_token":"refresh-token-2"`, count)
		if expiresIn > 0 {
			body += fmt.Sprintf(`,"expires_in":%d`, expiresIn)
		}
		body += "}"
		fmt.Fprint(w, body)
	}))
	return srv, &count
}

func TestTokenCachedWithinBuffer(t *testing.T) {
	srv, count := newTokenServer(t, 3600, http.StatusOK)
	defer srv.Close()

	origTokenURL := tokenURL
	tokenURL = srv.URL
	defer func() { tokenURL = origTokenURL }()

	ts, err := NewTokenSource(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}

	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("first Token: %v", err)
	}
	if tok.AccessToken != "at-1" {
		t.Errorf("access token = %q, want at-1", tok.AccessToken)
	}
	if *count != 1 {
		t.Fatalf("refresh count after first call = %d, want 1", *count)
	}

	// Second call inside the expiry-minus-buffer window: no refresh.
	if _, err := ts.Token(); err != nil {
		t.Fatalf("second Token: %v", err)
	}
	if *count != 1 {
		t.Errorf("refresh count after cached call = %d, want 1", *count)
	}

	// Force the cached token into the buffer window: one more refresh.
	ts.tok.Expiry = time.Now().Add(2 * time.Minute)
	tok, err = ts.Token()
	if err != nil {
		t.Fatalf("third Token: %v", err)
	}
	if *count != 2 {
		t.Errorf("refresh count after expiry = %d, want 2", *count)
	}
	if tok.AccessToken != "at-2" {
		t.Errorf("refreshed access token = %q, want at-2", tok.AccessToken)
	}
}

func TestTokenDefaultsLifetime(t *testing.T) {
	srv, _ := newTokenServer(t, 0, http.StatusOK) // no expires_in
	defer srv.Close()

	origTokenURL := tokenURL
	tokenURL = srv.URL
	defer func() { tokenURL = origTokenURL }()

	ts, err := NewTokenSource(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}

	want := time.Now().Add(defaultLifetime)
	if tok.Expiry.Before(want.Add(-time.Minute)) || tok.Expiry.After(want.Add(time.Minute)) {
		t.Errorf("expiry = %v, want about %v", tok.Expiry, want)
	}
}

func TestTokenRotatesRefreshToken(t *testing.T) {
	srv, _ := newTokenServer(t, 3600, http.StatusOK)
	defer srv.Close()

	origTokenURL := tokenURL
	tokenURL = srv.URL
	defer func() { tokenURL = origTokenURL }()

	ts, err := NewTokenSource(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if ts.refreshToken != "refresh-token-2" {
		t.Errorf("refresh token = %q, want rotated refresh-token-2", ts.refreshToken)
	}
}

func TestTokenRefreshFailure(t *testing.T) {
	srv, _ := newTokenServer(t, 3600, http.StatusBadRequest)
	defer srv.Close()

	origTokenURL := tokenURL
	tokenURL = srv.URL
	defer func() { tokenURL = origTokenURL }()

	ts, err := NewTokenSource(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}

	_, err = ts.Token()
	if err == nil {
		t.Fatal("Token succeeded, want *AuthError")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("error %v is not *AuthError", err)
	}
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"complete", testCreds(), false},
		{"no client id", Credentials{ClientSecret: "s", RefreshToken: "r"}, true},
		{"no client secret", Credentials{ClientID: "c", RefreshToken: "r"}, true},
		{"no refresh token", Credentials{ClientID: "c", ClientSecret: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthCodeURL(t *testing.T) {
	u := AuthCodeURL("my-client")
	for _, want := range []string{"client_id=my-client", "response_type=code", "response_mode=query", "offline_access"} {
		if !strings.Contains(u, want) {
			t.Errorf("auth URL %q missing %q", u, want)
		}
	}
}
