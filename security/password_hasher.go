package security

import (
	"fmt"

	"github.com/matthewhartstonge/argon2"

	"github.com/goliatone/go-accounts/core"
)

// Argon2Hasher produces PHC encoded argon2id hashes.
type Argon2Hasher struct {
	config argon2.Config
}

type HasherOption func(*argon2.Config)

// WithCost overrides the time and memory (KiB) cost parameters.
func WithCost(timeCost, memoryCost uint32) HasherOption {
	return func(cfg *argon2.Config) {
		if timeCost > 0 {
			cfg.TimeCost = timeCost
		}
		if memoryCost > 0 {
			cfg.MemoryCost = memoryCost
		}
	}
}

func NewArgon2Hasher(opts ...HasherOption) *Argon2Hasher {
	cfg := argon2.DefaultConfig()
	cfg.Mode = argon2.ModeArgon2id
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Argon2Hasher{config: cfg}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	if h == nil {
		return "", fmt.Errorf("security: password hasher is nil")
	}
	if password == "" {
		return "", fmt.Errorf("security: password is required")
	}
	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("security: hash password: %w", err)
	}
	return string(encoded), nil
}

// Verify reports false with no error on a mismatch. Malformed hashes
// return an error.
func (h *Argon2Hasher) Verify(password string, encoded string) (bool, error) {
	if encoded == "" {
		return false, fmt.Errorf("security: encoded hash is required")
	}
	ok, err := argon2.VerifyEncoded([]byte(password), []byte(encoded))
	if err != nil {
		return false, fmt.Errorf("security: verify password: %w", err)
	}
	return ok, nil
}

var _ core.PasswordHasher = (*Argon2Hasher)(nil)
