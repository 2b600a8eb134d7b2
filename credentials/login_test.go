package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginCredentialProviderUsesCachedTokenWhenFresh(t *testing.T) {
	dir := t.TempDir()
	_, pemKey := generateTestDPoPKey(t)

	p := NewLoginCredentialProvider(dir, "session-x", "us-east-1")
	p.Now = func() time.Time { return time.Unix(1000, 0) }

	tf := TokenFile{
		AccessToken: TokenFileAccessToken{
			AccessKeyID: "AKIDFRESH",
			ExpiresAt:   time.Unix(2000, 0),
		},
		RefreshToken: "rt",
		DPoPKey:      pemKey,
		ClientID:     "client",
	}
	if err := WriteTokenFile(p.path(), tf); err != nil {
		t.Fatal(err)
	}

	cred, err := p.GetExpiringCredential(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cred.AccessKeyID != "AKIDFRESH" {
		t.Fatalf("expected cached credential, got %+v", cred)
	}
}

func TestLoginCredentialProviderRefreshesExpiredToken(t *testing.T) {
	dir := t.TempDir()
	_, pemKey := generateTestDPoPKey(t)

	var gotDPoP string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDPoP = r.Header.Get("DPoP")
		var req loginRefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GrantType != "refresh_token" || req.RefreshToken != "old-refresh" {
			t.Errorf("unexpected request body: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginRefreshResponse{
			AccessToken: struct {
				AccessKeyID     string `json:"accessKeyId"`
				SecretAccessKey string `json:"secretAccessKey"`
				SessionToken    string `json:"sessionToken"`
			}{AccessKeyID: "AKIDNEW", SecretAccessKey: "newsecret"},
			ExpiresIn:    3600,
			RefreshToken: "new-refresh",
			TokenType:    "Bearer",
		})
	}))
	defer server.Close()

	p := NewLoginCredentialProvider(dir, "session-y", "us-east-1")
	p.Now = func() time.Time { return time.Unix(1000, 0) }
	p.HTTPClient = server.Client()
	p.Endpoint = server.URL

	tf := TokenFile{
		AccessToken:  TokenFileAccessToken{ExpiresAt: time.Unix(500, 0)}, // already expired
		RefreshToken: "old-refresh",
		DPoPKey:      pemKey,
		ClientID:     "client-y",
	}
	if err := WriteTokenFile(p.path(), tf); err != nil {
		t.Fatal(err)
	}

	refreshed, err := p.refresh(context.Background(), tf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.AccessToken.AccessKeyID != "AKIDNEW" {
		t.Fatalf("unexpected refreshed token: %+v", refreshed)
	}
	if gotDPoP == "" {
		t.Fatal("expected DPoP header to be set")
	}

	persisted, err := ReadTokenFile(p.path())
	if err != nil {
		t.Fatal(err)
	}
	if persisted.AccessToken.AccessKeyID != "AKIDNEW" {
		t.Fatalf("expected persisted token to be updated, got %+v", persisted)
	}
}

func TestLoginCredentialProviderErrorMapping(t *testing.T) {
	cases := []struct {
		code    string
		wantMsg string
	}{
		{"TOKEN_EXPIRED", "reauthenticate"},
		{"USER_CREDENTIALS_CHANGED", "password changed"},
		{"INSUFFICIENT_PERMISSIONS", "CreateOAuth2Token"},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(loginErrorBody{Code: tc.code, Message: "detail"})
		}))

		_, pemKey := generateTestDPoPKey(t)
		dir := t.TempDir()
		p := NewLoginCredentialProvider(dir, "s", "us-east-1")
		p.HTTPClient = server.Client()
		p.Endpoint = server.URL

		tf := TokenFile{DPoPKey: pemKey, ClientID: "c", RefreshToken: "r"}
		_, err := p.refresh(context.Background(), tf, nil)
		server.Close()

		refreshErr, ok := err.(*TokenRefreshError)
		if !ok {
			t.Fatalf("case %s: expected *TokenRefreshError, got %T (%v)", tc.code, err, err)
		}
		if refreshErr.Code != tc.code {
			t.Fatalf("case %s: unexpected code %s", tc.code, refreshErr.Code)
		}
	}
}
