package query

import (
	"context"

	"github.com/goliatone/go-accounts/core"
)

type CredentialsReader interface {
	Login(ctx context.Context, req core.LoginRequest) (string, error)
}

type AccountReader interface {
	GetAccount(ctx context.Context, userID string) (core.Account, error)
}

type LinkReader interface {
	LinkStatus(ctx context.Context, userID string, providerID string) (core.Link, error)
	LinkedTokens(ctx context.Context, userID string, providerID string) (core.TokenSet, error)
}

type LoginQuery struct {
	reader CredentialsReader
}

func NewLoginQuery(reader CredentialsReader) *LoginQuery {
	return &LoginQuery{reader: reader}
}

// Query returns the authenticated user id.
func (q *LoginQuery) Query(ctx context.Context, msg LoginMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: credentials reader is required")
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}
	return q.reader.Login(ctx, core.LoginRequest{Username: msg.Username, Password: msg.Password})
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Account{}, err
	}
	return q.reader.GetAccount(ctx, msg.UserID)
}

type LinkStatusQuery struct {
	reader LinkReader
}

func NewLinkStatusQuery(reader LinkReader) *LinkStatusQuery {
	return &LinkStatusQuery{reader: reader}
}

func (q *LinkStatusQuery) Query(ctx context.Context, msg LinkStatusMessage) (core.Link, error) {
	if q == nil || q.reader == nil {
		return core.Link{}, queryDependencyError("query: link reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Link{}, err
	}
	return q.reader.LinkStatus(ctx, msg.UserID, msg.ProviderID)
}

type LinkedTokensQuery struct {
	reader LinkReader
}

func NewLinkedTokensQuery(reader LinkReader) *LinkedTokensQuery {
	return &LinkedTokensQuery{reader: reader}
}

func (q *LinkedTokensQuery) Query(ctx context.Context, msg LinkedTokensMessage) (core.TokenSet, error) {
	if q == nil || q.reader == nil {
		return core.TokenSet{}, queryDependencyError("query: link reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.TokenSet{}, err
	}
	return q.reader.LinkedTokens(ctx, msg.UserID, msg.ProviderID)
}
