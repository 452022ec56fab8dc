package core

import (
	"fmt"
	"strings"
)

const DefaultNonceLength = 64

type OAuthConfig struct {
	NonceLength int `koanf:"nonce_length" mapstructure:"nonce_length"`
	// ExchangeBeforeStateCheck runs the token exchange before the stored
	// state is compared. Tokens from a mismatched callback are discarded.
	ExchangeBeforeStateCheck bool `koanf:"exchange_before_state_check" mapstructure:"exchange_before_state_check"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	OAuth       OAuthConfig `koanf:"oauth" mapstructure:"oauth"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "accounts",
		OAuth: OAuthConfig{
			NonceLength: DefaultNonceLength,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.OAuth.NonceLength < 16 {
		return fmt.Errorf("core: oauth.nonce_length must be at least 16, got %d", c.OAuth.NonceLength)
	}
	return nil
}
