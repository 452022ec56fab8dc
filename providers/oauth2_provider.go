package providers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/identity"
)

type OAuth2Config struct {
	ID                 string
	AuthURL            string
	TokenURL           string
	ProfileURL         string
	ClientID           string
	ClientSecret       string
	ClientSecretInBody bool
	DefaultScopes      []string
	// ScopeSeparator joins scopes in the authorize URL. Defaults to a
	// single space.
	ScopeSeparator  string
	ExtraAuthParams map[string]string
	PKCE            bool
	ProfileFields   identity.FieldMapping
	UserAgent       string
	RequestTimeout  time.Duration
	HTTPClient      core.HTTPDoer
}

// OAuth2Provider bundles authorize URL construction, code exchange and
// profile fetch for one authorization-code provider.
type OAuth2Provider struct {
	cfg       OAuth2Config
	exchanger core.TokenExchanger
	fetcher   core.ProfileFetcher
}

func NewOAuth2Provider(cfg OAuth2Config) (*OAuth2Provider, error) {
	cfg.ID = strings.TrimSpace(strings.ToLower(cfg.ID))
	if cfg.ID == "" {
		return nil, fmt.Errorf("providers: provider id is required")
	}
	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("providers: auth url is required for provider %q", cfg.ID)
	}
	if _, err := url.Parse(cfg.AuthURL); err != nil {
		return nil, fmt.Errorf("providers: invalid auth url for provider %q: %w", cfg.ID, err)
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.DefaultScopes = normalizeScopes(cfg.DefaultScopes)
	if cfg.ScopeSeparator == "" {
		cfg.ScopeSeparator = " "
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	cfg.ExtraAuthParams = cloneParams(cfg.ExtraAuthParams)

	exchanger, err := NewFormTokenExchanger(TokenExchangerConfig{
		ProviderID:         cfg.ID,
		TokenURL:           cfg.TokenURL,
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		ClientSecretInBody: cfg.ClientSecretInBody,
		UserAgent:          cfg.UserAgent,
		RequestTimeout:     cfg.RequestTimeout,
		HTTPClient:         cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	fetcher, err := identity.NewFetcher(identity.Config{
		ProviderID:     cfg.ID,
		ProfileURL:     cfg.ProfileURL,
		Fields:         cfg.ProfileFields,
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		HTTPClient:     cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return &OAuth2Provider{cfg: cfg, exchanger: exchanger, fetcher: fetcher}, nil
}

func (p *OAuth2Provider) ID() string {
	if p == nil {
		return ""
	}
	return p.cfg.ID
}

func (p *OAuth2Provider) UsesPKCE() bool {
	return p != nil && p.cfg.PKCE
}

func (p *OAuth2Provider) AuthorizeURL(req core.AuthorizeRequest) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: oauth2 provider is nil")
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		return "", fmt.Errorf("providers: state is required")
	}
	if p.cfg.PKCE && strings.TrimSpace(req.CodeChallenge) == "" {
		return "", fmt.Errorf("providers: code challenge is required for provider %q", p.cfg.ID)
	}
	scopes := normalizeScopes(req.Scopes)
	if len(scopes) == 0 {
		scopes = append([]string(nil), p.cfg.DefaultScopes...)
	}

	values := url.Values{}
	for key, value := range p.cfg.ExtraAuthParams {
		values.Set(key, value)
	}
	values.Set("response_type", "code")
	values.Set("client_id", p.cfg.ClientID)
	if redirectURI := strings.TrimSpace(req.RedirectURI); redirectURI != "" {
		values.Set("redirect_uri", redirectURI)
	}
	if len(scopes) > 0 {
		values.Set("scope", strings.Join(scopes, p.cfg.ScopeSeparator))
	}
	values.Set("state", state)
	if p.cfg.PKCE {
		values.Set("code_challenge", strings.TrimSpace(req.CodeChallenge))
		values.Set("code_challenge_method", "S256")
	}

	authURL := p.cfg.AuthURL
	if strings.Contains(authURL, "?") {
		authURL += "&" + values.Encode()
	} else {
		authURL += "?" + values.Encode()
	}
	return authURL, nil
}

func (p *OAuth2Provider) Exchange(ctx context.Context, req core.ExchangeRequest) (core.TokenSet, error) {
	if p == nil {
		return core.TokenSet{}, fmt.Errorf("providers: oauth2 provider is nil")
	}
	return p.exchanger.Exchange(ctx, req)
}

func (p *OAuth2Provider) FetchProfile(ctx context.Context, accessToken string) (core.Profile, error) {
	if p == nil {
		return core.Profile{}, fmt.Errorf("providers: oauth2 provider is nil")
	}
	return p.fetcher.FetchProfile(ctx, accessToken)
}

func normalizeScopes(input []string) []string {
	if len(input) == 0 {
		return []string{}
	}
	values := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, value := range input {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		values = append(values, normalized)
	}
	sort.Strings(values)
	return values
}

func cloneParams(input map[string]string) map[string]string {
	output := make(map[string]string, len(input))
	for key, value := range input {
		if strings.TrimSpace(key) == "" {
			continue
		}
		output[strings.TrimSpace(key)] = value
	}
	return output
}

var _ core.Provider = (*OAuth2Provider)(nil)
