package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// fieldRecord is one field of a user hash. A user record exists while at
// least one of its rows exists.
type fieldRecord struct {
	bun.BaseModel `bun:"table:account_fields,alias:af"`

	UserID    string    `bun:"user_id,pk"`
	Field     string    `bun:"field,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type usernameRecord struct {
	bun.BaseModel `bun:"table:account_usernames,alias:au"`

	ID        string    `bun:"id,pk"`
	Username  string    `bun:"username,notnull,unique"`
	UserID    string    `bun:"user_id,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
