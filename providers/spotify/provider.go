package spotify

import (
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/identity"
	"github.com/goliatone/go-accounts/providers"
)

const (
	ProviderID = "spotify"
	AuthURL    = "https://accounts.spotify.com/authorize"
	TokenURL   = "https://accounts.spotify.com/api/token"
	ProfileURL = "https://api.spotify.com/v1/me"
)

type Config struct {
	ClientID       string
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
		DefaultScopes: []string{"user-read-private"},
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
		ProfileFields:  identity.FieldMapping{ID: "id", Name: "display_name"},
		RequestTimeout: cfg.RequestTimeout,
		HTTPClient:     cfg.HTTPClient,
	})
}
