package migrations

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Dialects match the store/sql drivers they serve.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const schemaRoot = "data/sql/migrations"

// Schema returns the account schema for dialect. Postgres files sit at
// the root of data/sql/migrations and the sqlite variants under
// sqlite/. Every up file must have a matching down file.
func Schema(dialect string) (fs.FS, error) {
	dir := schemaRoot
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres:
	case DialectSQLite:
		dir = path.Join(schemaRoot, "sqlite")
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	schema, err := fs.Sub(FS(), dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s schema: %w", dialect, err)
	}
	ups, err := fs.Glob(schema, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: list %s schema: %w", dialect, err)
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("migrations: %s schema has no *.up.sql files", dialect)
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(schema, down); err != nil {
			return nil, fmt.Errorf("migrations: %s migration %s has no down file", dialect, up)
		}
	}
	return schema, nil
}

// Register hands the schema of dialect to register, usually the
// go-persistence-bun client's RegisterSQLMigrations.
func Register(dialect string, register func(fs.FS)) error {
	if register == nil {
		return fmt.Errorf("migrations: register function is required")
	}
	schema, err := Schema(dialect)
	if err != nil {
		return err
	}
	register(schema)
	return nil
}
