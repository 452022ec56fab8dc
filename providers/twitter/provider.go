package twitter

import (
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/identity"
	"github.com/goliatone/go-accounts/providers"
)

const (
	ProviderID = "twitter"
	AuthURL    = "https://twitter.com/i/oauth2/authorize"
	TokenURL   = "https://api.twitter.com/2/oauth2/token"
	ProfileURL = "https://api.twitter.com/2/users/me"
)

type Config struct {
	ClientID string
	// ClientSecret is optional; public clients rely on PKCE alone.
	ClientSecret   string
	AuthURL        string
	TokenURL       string
	ProfileURL     string
	DefaultScopes  []string
	RequestTimeout time.Duration
	HTTPClient     core.HTTPDoer
}

func DefaultConfig() Config {
	return Config{
		AuthURL:       AuthURL,
		TokenURL:      TokenURL,
		ProfileURL:    ProfileURL,
		DefaultScopes: []string{"tweet.read", "users.read", "follows.read", "follows.write"},
	}
}

func New(cfg Config) (*providers.OAuth2Provider, error) {
	defaults := DefaultConfig()
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaults.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaults.TokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = defaults.ProfileURL
	}
	if len(cfg.DefaultScopes) == 0 {
		cfg.DefaultScopes = defaults.DefaultScopes
	}
	return providers.NewOAuth2Provider(providers.OAuth2Config{
		ID:             ProviderID,
		AuthURL:        cfg.AuthURL,
		TokenURL:       cfg.TokenURL,
		ProfileURL:     cfg.ProfileURL,
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		DefaultScopes:  cfg.DefaultScopes,
		PKCE:           true,
		ProfileFields:  identity.FieldMapping{ID: "data.id", Name: "data.name"},
		RequestTimeout: cfg.RequestTimeout,
		HTTPClient:     cfg.HTTPClient,
	})
}
