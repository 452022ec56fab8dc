package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/identity"
)

func TestOAuth2Provider_AuthorizeExchangeProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"AT","refresh_token":"RT"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer AT" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "sp123", "display_name": "Alice"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider, err := NewOAuth2Provider(OAuth2Config{
		ID:              "Spotify",
		AuthURL:         "https://accounts.example/authorize",
		TokenURL:        server.URL + "/token",
		ProfileURL:      server.URL + "/me",
		ClientID:        "client-123",
		ClientSecret:    "secret-456",
		DefaultScopes:   []string{"user-read-private"},
		ExtraAuthParams: map[string]string{"show_dialog": "true"},
		ProfileFields:   identity.FieldMapping{ID: "id", Name: "display_name"},
		HTTPClient:      server.Client(),
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if provider.ID() != "spotify" || provider.UsesPKCE() {
		t.Fatalf("unexpected provider id or pkce flag")
	}

	raw, err := provider.AuthorizeURL(core.AuthorizeRequest{State: "S", RedirectURI: "http://cb"})
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	query := parsed.Query()
	expected := map[string]string{
		"response_type": "code",
		"client_id":     "client-123",
		"redirect_uri":  "http://cb",
		"scope":         "user-read-private",
		"state":         "S",
		"show_dialog":   "true",
	}
	for key, want := range expected {
		if got := query.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}
	if query.Has("code_challenge") {
		t.Fatalf("expected no pkce parameters")
	}

	tokens, err := provider.Exchange(context.Background(), core.ExchangeRequest{Code: "C"})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	profile, err := provider.FetchProfile(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.ProviderUserID != "sp123" || profile.DisplayName != "Alice" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestOAuth2Provider_PKCERequiresChallenge(t *testing.T) {
	provider, err := NewOAuth2Provider(OAuth2Config{
		ID:         "twitter",
		AuthURL:    "https://auth.example/authorize?lang=en",
		TokenURL:   "https://auth.example/token",
		ProfileURL: "https://api.example/me",
		ClientID:   "client",
		PKCE:       true,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := provider.AuthorizeURL(core.AuthorizeRequest{State: "S"}); err == nil {
		t.Fatalf("expected error without code challenge")
	}
	raw, err := provider.AuthorizeURL(core.AuthorizeRequest{State: "S", CodeChallenge: "challenge"})
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}
	parsed, _ := url.Parse(raw)
	query := parsed.Query()
	if query.Get("code_challenge") != "challenge" || query.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected S256 pkce parameters, got %v", query)
	}
	if query.Get("lang") != "en" {
		t.Fatalf("expected existing query to be preserved")
	}
}

func TestOAuth2Provider_RequiresState(t *testing.T) {
	provider, err := NewOAuth2Provider(OAuth2Config{
		ID: "spotify", AuthURL: "https://a", TokenURL: "https://t", ProfileURL: "https://p", ClientID: "c",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := provider.AuthorizeURL(core.AuthorizeRequest{}); err == nil {
		t.Fatalf("expected error for empty state")
	}
}

func TestNewOAuth2Provider_RequiresIDAuthURLAndClientID(t *testing.T) {
	base := OAuth2Config{ID: "x", AuthURL: "https://a", TokenURL: "https://t", ProfileURL: "https://p", ClientID: "c"}
	for name, mutate := range map[string]func(*OAuth2Config){
		"id":          func(c *OAuth2Config) { c.ID = "" },
		"auth_url":    func(c *OAuth2Config) { c.AuthURL = "" },
		"token_url":   func(c *OAuth2Config) { c.TokenURL = "" },
		"profile_url": func(c *OAuth2Config) { c.ProfileURL = "" },
		"client_id":   func(c *OAuth2Config) { c.ClientID = "" },
	} {
		cfg := base
		mutate(&cfg)
		if _, err := NewOAuth2Provider(cfg); err == nil {
			t.Fatalf("expected error when %s is missing", name)
		}
	}
}
