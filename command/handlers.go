package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-accounts/core"
)

// MutatingService is the subset of core.AccountService that changes
// stored state.
type MutatingService interface {
	Register(ctx context.Context, req core.RegisterRequest) (string, error)
	DeleteAccount(ctx context.Context, userID string) error
	IssueConnectURL(ctx context.Context, req core.ConnectRequest) (core.ConnectResponse, error)
	HandleCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
}

// RegisterResult is stored on the context result collector by
// RegisterCommand.
type RegisterResult struct {
	UserID string
}

type RegisterCommand struct {
	service MutatingService
}

func NewRegisterCommand(service MutatingService) *RegisterCommand {
	return &RegisterCommand{service: service}
}

func (c *RegisterCommand) Execute(ctx context.Context, msg RegisterMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: register service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	userID, err := c.service.Register(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, RegisterResult{UserID: userID})
	return nil
}

type DeleteAccountCommand struct {
	service MutatingService
}

func NewDeleteAccountCommand(service MutatingService) *DeleteAccountCommand {
	return &DeleteAccountCommand{service: service}
}

func (c *DeleteAccountCommand) Execute(ctx context.Context, msg DeleteAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: delete account service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.DeleteAccount(ctx, msg.UserID)
}

type IssueConnectURLCommand struct {
	service MutatingService
}

func NewIssueConnectURLCommand(service MutatingService) *IssueConnectURLCommand {
	return &IssueConnectURLCommand{service: service}
}

func (c *IssueConnectURLCommand) Execute(ctx context.Context, msg IssueConnectURLMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.IssueConnectURL(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type HandleCallbackCommand struct {
	service MutatingService
}

func NewHandleCallbackCommand(service MutatingService) *HandleCallbackCommand {
	return &HandleCallbackCommand{service: service}
}

func (c *HandleCallbackCommand) Execute(ctx context.Context, msg HandleCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.HandleCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
