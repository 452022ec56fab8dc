package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterMessage]        = (*RegisterCommand)(nil)
	_ gocmd.Commander[DeleteAccountMessage]   = (*DeleteAccountCommand)(nil)
	_ gocmd.Commander[IssueConnectURLMessage] = (*IssueConnectURLCommand)(nil)
	_ gocmd.Commander[HandleCallbackMessage]  = (*HandleCallbackCommand)(nil)
)
