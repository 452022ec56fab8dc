package accounts

import (
	"fmt"

	accountscommand "github.com/goliatone/go-accounts/command"
	accountsquery "github.com/goliatone/go-accounts/query"
)

type CommandQueryService interface {
	accountscommand.MutatingService
	accountsquery.CredentialsReader
	accountsquery.AccountReader
	accountsquery.LinkReader
}

type Commands struct {
	Register        *accountscommand.RegisterCommand
	DeleteAccount   *accountscommand.DeleteAccountCommand
	IssueConnectURL *accountscommand.IssueConnectURLCommand
	HandleCallback  *accountscommand.HandleCallbackCommand
}

type Queries struct {
	Login        *accountsquery.LoginQuery
	GetAccount   *accountsquery.GetAccountQuery
	LinkStatus   *accountsquery.LinkStatusQuery
	LinkedTokens *accountsquery.LinkedTokensQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("accounts: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Register:        accountscommand.NewRegisterCommand(service),
		DeleteAccount:   accountscommand.NewDeleteAccountCommand(service),
		IssueConnectURL: accountscommand.NewIssueConnectURLCommand(service),
		HandleCallback:  accountscommand.NewHandleCallbackCommand(service),
	}
	facade.queries = Queries{
		Login:        accountsquery.NewLoginQuery(service),
		GetAccount:   accountsquery.NewGetAccountQuery(service),
		LinkStatus:   accountsquery.NewLinkStatusQuery(service),
		LinkedTokens: accountsquery.NewLinkedTokensQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
