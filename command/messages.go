package command

import (
	"strings"

	"github.com/goliatone/go-accounts/core"
)

const (
	TypeRegister        = "accounts.command.register"
	TypeDeleteAccount   = "accounts.command.delete"
	TypeIssueConnectURL = "accounts.command.link.connect"
	TypeHandleCallback  = "accounts.command.link.callback"
)

type RegisterMessage struct {
	Request core.RegisterRequest
}

func (RegisterMessage) Type() string { return TypeRegister }

func (m RegisterMessage) Validate() error {
	if strings.TrimSpace(m.Request.Username) == "" {
		return commandValidationError("username", "username is required")
	}
	if m.Request.Password == "" {
		return commandValidationError("password", "password is required")
	}
	return nil
}

type DeleteAccountMessage struct {
	UserID string
}

func (DeleteAccountMessage) Type() string { return TypeDeleteAccount }

func (m DeleteAccountMessage) Validate() error {
	return requireUserID(m.UserID)
}

type IssueConnectURLMessage struct {
	Request core.ConnectRequest
}

func (IssueConnectURLMessage) Type() string { return TypeIssueConnectURL }

func (m IssueConnectURLMessage) Validate() error {
	if err := requireUserID(m.Request.UserID); err != nil {
		return err
	}
	return requireProviderID(m.Request.ProviderID)
}

// HandleCallbackMessage leaves code and state checks to the service so
// a missing state is reported as an invalid state rather than bad input.
type HandleCallbackMessage struct {
	Request core.CallbackRequest
}

func (HandleCallbackMessage) Type() string { return TypeHandleCallback }

func (m HandleCallbackMessage) Validate() error {
	if err := requireUserID(m.Request.UserID); err != nil {
		return err
	}
	return requireProviderID(m.Request.ProviderID)
}

func requireUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return commandValidationError("user_id", "user id is required")
	}
	return nil
}

func requireProviderID(providerID string) error {
	if strings.TrimSpace(providerID) == "" {
		return commandValidationError("provider_id", "provider id is required")
	}
	return nil
}
