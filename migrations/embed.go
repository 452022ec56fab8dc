package migrations

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the account schema for postgres with the sqlite
// alternative under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// FS returns the embedded migration tree.
func FS() fs.FS {
	return migrationsFS
}
