package reddit

import (
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/identity"
	"github.com/goliatone/go-accounts/providers"
)

const (
	ProviderID = "reddit"
	AuthURL    = "https://www.reddit.com/api/v1/authorize"
	TokenURL   = "https://www.reddit.com/api/v1/access_token"
	ProfileURL = "https://oauth.reddit.com/api/v1/me"
	// UserAgent is sent on every call; the API rejects generic agents.
	UserAgent = "socially/1.0"
)

type Config struct {
	ClientID       string
	ClientSecret   string
	AuthURL        string
	TokenURL       string
	ProfileURL     string
	UserAgent      string
	DefaultScopes  []string
	RequestTimeout time.Duration
	HTTPClient     core.HTTPDoer
}

func DefaultConfig() Config {
	return Config{
		AuthURL:       AuthURL,
		TokenURL:      TokenURL,
		ProfileURL:    ProfileURL,
		UserAgent:     UserAgent,
		DefaultScopes: []string{"identity", "read"},
	}
}

// New builds the reddit provider. Authorize URLs request a permanent
// grant so a refresh token is issued.
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
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if len(cfg.DefaultScopes) == 0 {
		cfg.DefaultScopes = defaults.DefaultScopes
	}
	return providers.NewOAuth2Provider(providers.OAuth2Config{
		ID:              ProviderID,
		AuthURL:         cfg.AuthURL,
		TokenURL:        cfg.TokenURL,
		ProfileURL:      cfg.ProfileURL,
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		DefaultScopes:   cfg.DefaultScopes,
		ScopeSeparator:  ",",
		ExtraAuthParams: map[string]string{"duration": "permanent"},
		ProfileFields:   identity.FieldMapping{ID: "id", Name: "name"},
		UserAgent:       cfg.UserAgent,
		RequestTimeout:  cfg.RequestTimeout,
		HTTPClient:      cfg.HTTPClient,
	})
}
