package sqlstore

import "github.com/goliatone/go-accounts/core"

var (
	_ core.RecordStore   = (*RecordStore)(nil)
	_ core.UsernameIndex = (*UsernameIndex)(nil)
	_ core.RecordStore   = (*Store)(nil)
	_ core.UsernameIndex = (*Store)(nil)
)
