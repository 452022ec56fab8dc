package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goliatone/go-accounts/core"
)

func TestNew_AuthorizeURLDefaults(t *testing.T) {
	provider, err := New(Config{ClientID: "client-123", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if provider.ID() != ProviderID || provider.UsesPKCE() {
		t.Fatalf("unexpected provider identity")
	}
	raw, err := provider.AuthorizeURL(core.AuthorizeRequest{State: "S", RedirectURI: "http://localhost/cb"})
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}
	parsed, _ := url.Parse(raw)
	if parsed.Host != "accounts.spotify.com" || parsed.Path != "/authorize" {
		t.Fatalf("unexpected authorize endpoint %q", raw)
	}
	query := parsed.Query()
	if query.Get("client_id") != "client-123" || query.Get("state") != "S" || query.Get("scope") != "user-read-private" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestNew_ProfileMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"sp123","display_name":"Alice","country":"SE"}`))
	}))
	defer server.Close()

	provider, err := New(Config{ClientID: "c", ProfileURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	profile, err := provider.FetchProfile(context.Background(), "AT")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.ProviderUserID != "sp123" || profile.DisplayName != "Alice" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
