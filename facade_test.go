package accounts

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"

	accountscommand "github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/core"
	accountsquery "github.com/goliatone/go-accounts/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Register == nil || commands.DeleteAccount == nil ||
		commands.IssueConnectURL == nil || commands.HandleCallback == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.Login == nil || queries.GetAccount == nil ||
		queries.LinkStatus == nil || queries.LinkedTokens == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	collector := gocmd.NewResult[accountscommand.RegisterResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := facade.Commands().Register.Execute(ctx, accountscommand.RegisterMessage{
		Request: core.RegisterRequest{Username: "alice", Password: "correct-horse"},
	}); err != nil {
		t.Fatalf("execute register command: %v", err)
	}
	if svc.lastRegisteredUsername != "alice" {
		t.Fatalf("unexpected register delegation payload")
	}
	if result, ok := collector.Load(); !ok || result.UserID != "u-1" {
		t.Fatalf("unexpected register result %#v", result)
	}

	link, err := facade.Queries().LinkStatus.Query(context.Background(), accountsquery.LinkStatusMessage{
		UserID:     "u-1",
		ProviderID: "spotify",
	})
	if err != nil {
		t.Fatalf("query link status: %v", err)
	}
	if link.State != core.LinkStateLinked || link.ExternalID != "sp123" {
		t.Fatalf("unexpected link status result: %#v", link)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestFacade_NilReceiverIsSafe(t *testing.T) {
	var facade *Facade
	if facade.Service() != nil {
		t.Fatalf("expected nil service")
	}
	if facade.Commands().Register != nil || facade.Queries().Login != nil {
		t.Fatalf("expected empty handler sets")
	}
}

type stubFacadeService struct {
	lastRegisteredUsername string
}

func (s *stubFacadeService) Register(_ context.Context, req core.RegisterRequest) (string, error) {
	s.lastRegisteredUsername = req.Username
	return "u-1", nil
}

func (s *stubFacadeService) DeleteAccount(context.Context, string) error {
	return nil
}

func (s *stubFacadeService) IssueConnectURL(_ context.Context, req core.ConnectRequest) (core.ConnectResponse, error) {
	return core.ConnectResponse{URL: "https://example.test/authorize?state=S", State: "S"}, nil
}

func (s *stubFacadeService) HandleCallback(_ context.Context, req core.CallbackRequest) (core.CallbackResult, error) {
	return core.CallbackResult{UserID: req.UserID, ProviderID: req.ProviderID, Status: core.LinkStateLinked}, nil
}

func (s *stubFacadeService) Login(context.Context, core.LoginRequest) (string, error) {
	return "u-1", nil
}

func (s *stubFacadeService) GetAccount(_ context.Context, userID string) (core.Account, error) {
	return core.Account{ID: userID, Username: "alice", Links: map[string]core.Link{}}, nil
}

func (s *stubFacadeService) LinkStatus(_ context.Context, _ string, providerID string) (core.Link, error) {
	return core.Link{ProviderID: providerID, State: core.LinkStateLinked, ExternalID: "sp123", Name: "Alice"}, nil
}

func (s *stubFacadeService) LinkedTokens(context.Context, string, string) (core.TokenSet, error) {
	return core.TokenSet{AccessToken: "AT", RefreshToken: "RT"}, nil
}
