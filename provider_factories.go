package accounts

import (
	"github.com/goliatone/go-accounts/config"
	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/providers/reddit"
	"github.com/goliatone/go-accounts/providers/spotify"
	"github.com/goliatone/go-accounts/providers/twitter"
)

func SpotifyProvider(cfg spotify.Config) (core.Provider, error) {
	provider, err := spotify.New(cfg)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func RedditProvider(cfg reddit.Config) (core.Provider, error) {
	provider, err := reddit.New(cfg)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func TwitterProvider(cfg twitter.Config) (core.Provider, error) {
	provider, err := twitter.New(cfg)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// ProvidersFromSettings builds every provider that has a client id set.
// httpClient may be nil.
func ProvidersFromSettings(settings config.Settings, httpClient core.HTTPDoer) ([]core.Provider, error) {
	timeout := settings.RequestTimeout
	out := []core.Provider{}

	if settings.Spotify.Enabled() {
		provider, err := SpotifyProvider(spotify.Config{
			ClientID:       settings.Spotify.ClientID,
			ClientSecret:   settings.Spotify.ClientSecret,
			RequestTimeout: timeout,
			HTTPClient:     httpClient,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	if settings.Reddit.Enabled() {
		provider, err := RedditProvider(reddit.Config{
			ClientID:       settings.Reddit.ClientID,
			ClientSecret:   settings.Reddit.ClientSecret,
			UserAgent:      settings.Reddit.UserAgent,
			RequestTimeout: timeout,
			HTTPClient:     httpClient,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	if settings.Twitter.Enabled() {
		provider, err := TwitterProvider(twitter.Config{
			ClientID:       settings.Twitter.ClientID,
			ClientSecret:   settings.Twitter.ClientSecret,
			RequestTimeout: timeout,
			HTTPClient:     httpClient,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	return out, nil
}

func redirectURIs(settings config.Settings) map[string]string {
	out := map[string]string{}
	for id, provider := range map[string]config.ProviderSettings{
		spotify.ProviderID: settings.Spotify,
		reddit.ProviderID:  settings.Reddit,
		twitter.ProviderID: settings.Twitter,
	} {
		if provider.Enabled() && provider.RedirectURI != "" {
			out[id] = provider.RedirectURI
		}
	}
	return out
}
