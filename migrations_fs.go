package accounts

import (
	"io/fs"

	"github.com/goliatone/go-accounts/migrations"
)

// GetMigrationsFS returns the embedded account schema, including the
// sqlite alternatives under data/sql/migrations/sqlite.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}
