package query

import (
	"strings"
)

const (
	TypeLogin        = "accounts.query.login"
	TypeGetAccount   = "accounts.query.account.get"
	TypeLinkStatus   = "accounts.query.link.status"
	TypeLinkedTokens = "accounts.query.link.tokens"
)

type LoginMessage struct {
	Username string
	Password string
}

func (LoginMessage) Type() string { return TypeLogin }

func (m LoginMessage) Validate() error {
	if strings.TrimSpace(m.Username) == "" {
		return queryValidationError("username", "username is required")
	}
	if m.Password == "" {
		return queryValidationError("password", "password is required")
	}
	return nil
}

type GetAccountMessage struct {
	UserID string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	return requireUserID(m.UserID)
}

type LinkStatusMessage struct {
	UserID     string
	ProviderID string
}

func (LinkStatusMessage) Type() string { return TypeLinkStatus }

func (m LinkStatusMessage) Validate() error {
	if err := requireUserID(m.UserID); err != nil {
		return err
	}
	return requireProviderID(m.ProviderID)
}

// LinkedTokensMessage requests decrypted provider tokens. Callers must
// only route it from trusted server-side code.
type LinkedTokensMessage struct {
	UserID     string
	ProviderID string
}

func (LinkedTokensMessage) Type() string { return TypeLinkedTokens }

func (m LinkedTokensMessage) Validate() error {
	if err := requireUserID(m.UserID); err != nil {
		return err
	}
	return requireProviderID(m.ProviderID)
}

func requireUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

func requireProviderID(providerID string) error {
	if strings.TrimSpace(providerID) == "" {
		return queryValidationError("provider_id", "provider id is required")
	}
	return nil
}
