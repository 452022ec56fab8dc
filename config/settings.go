// Package config loads process settings from the environment and feeds
// the service configuration loader.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

// ProviderSettings holds OAuth client credentials for one provider. A
// provider with no client id is not registered.
type ProviderSettings struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
	// UserAgent is sent on token and profile calls. Only reddit uses it.
	UserAgent string `env:"USER_AGENT"`
}

func (p ProviderSettings) Enabled() bool {
	return strings.TrimSpace(p.ClientID) != ""
}

type Settings struct {
	ServiceName              string        `env:"ACCOUNTS_SERVICE_NAME" envDefault:"accounts"`
	Store                    string        `env:"ACCOUNTS_STORE" envDefault:"memory"`
	RedisURI                 string        `env:"REDIS_URI"`
	DBDriver                 string        `env:"ACCOUNTS_DB_DRIVER" envDefault:"sqlite3"`
	DBDSN                    string        `env:"ACCOUNTS_DB_DSN"`
	UsernameCacheTTL         time.Duration `env:"ACCOUNTS_USERNAME_CACHE_TTL" envDefault:"5m"`
	SecretKey                string        `env:"ACCOUNTS_SECRET_KEY"`
	NonceLength              int           `env:"ACCOUNTS_NONCE_LENGTH" envDefault:"64"`
	ExchangeBeforeStateCheck bool          `env:"ACCOUNTS_EXCHANGE_BEFORE_STATE_CHECK"`
	RequestTimeout           time.Duration `env:"ACCOUNTS_REQUEST_TIMEOUT" envDefault:"10s"`

	Spotify ProviderSettings `envPrefix:"SPOTIFY_"`
	Reddit  ProviderSettings `envPrefix:"REDDIT_"`
	Twitter ProviderSettings `envPrefix:"TWITTER_"`
}

// Load reads Settings from the process environment.
func Load() (Settings, error) {
	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	settings = settings.normalized()
	return settings, settings.Validate()
}

// LoadFrom reads Settings from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (Settings, error) {
	var settings Settings
	if err := env.ParseWithOptions(&settings, env.Options{Environment: environ}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	settings = settings.normalized()
	return settings, settings.Validate()
}

func (s Settings) Validate() error {
	switch s.Store {
	case StoreMemory:
	case StoreRedis:
		if strings.TrimSpace(s.RedisURI) == "" {
			return fmt.Errorf("config: REDIS_URI is required for the redis store")
		}
	case StoreSQL:
		if strings.TrimSpace(s.DBDSN) == "" {
			return fmt.Errorf("config: ACCOUNTS_DB_DSN is required for the sql store")
		}
	default:
		return fmt.Errorf("config: unsupported store %q", s.Store)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("config: request timeout must be positive")
	}
	if s.UsernameCacheTTL < 0 {
		return fmt.Errorf("config: username cache ttl must not be negative")
	}
	return nil
}

// LoadRaw exposes the service section as a raw map for the cfgx loader.
func (s Settings) LoadRaw(context.Context) (map[string]any, error) {
	return map[string]any{
		"service_name": s.ServiceName,
		"oauth": map[string]any{
			"nonce_length":                s.NonceLength,
			"exchange_before_state_check": s.ExchangeBeforeStateCheck,
		},
	}, nil
}

func (s Settings) normalized() Settings {
	s.Store = strings.ToLower(strings.TrimSpace(s.Store))
	if s.Store == "" {
		s.Store = StoreMemory
	}
	s.ServiceName = strings.TrimSpace(s.ServiceName)
	s.DBDriver = strings.TrimSpace(s.DBDriver)
	return s
}
