package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-accounts/core"
)

var (
	_ gocmd.Querier[LoginMessage, string]               = (*LoginQuery)(nil)
	_ gocmd.Querier[GetAccountMessage, core.Account]    = (*GetAccountQuery)(nil)
	_ gocmd.Querier[LinkStatusMessage, core.Link]       = (*LinkStatusQuery)(nil)
	_ gocmd.Querier[LinkedTokensMessage, core.TokenSet] = (*LinkedTokensQuery)(nil)
)
