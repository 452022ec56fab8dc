package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	accountmigrations "github.com/goliatone/go-accounts/migrations"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config describes a SQL connection. It satisfies the go-persistence-bun
// client config.
type Config struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	return "go-accounts"
}

type Option func(*Store)

// WithUsernameCache routes username lookups through cacheService.
func WithUsernameCache(cacheService repositorycache.CacheService) Option {
	return func(s *Store) {
		s.cache = cacheService
	}
}

// Store bundles the SQL record store and username index over one
// connection.
type Store struct {
	*RecordStore
	*UsernameIndex

	client *persistence.Client
	cache  repositorycache.CacheService
}

// Open connects with the configured driver, applies the embedded
// migrations for its dialect and returns a ready store.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	cfg.Driver = normalizeDriver(cfg.Driver)
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var (
		dialect          schema.Dialect
		migrationDialect string
	)
	switch cfg.Driver {
	case DriverSQLite:
		dialect = sqlitedialect.New()
		migrationDialect = accountmigrations.DialectSQLite
	case DriverPostgres:
		dialect = pgdialect.New()
		migrationDialect = accountmigrations.DialectPostgres
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite && strings.Contains(cfg.DSN, "mode=memory") {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	err = accountmigrations.Register(migrationDialect, func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}

	store, err := NewFromPersistence(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

func NewFromPersistence(client *persistence.Client, opts ...Option) (*Store, error) {
	store, err := NewFromDB(resolveDB(client), opts...)
	if err != nil {
		return nil, err
	}
	store.client = client
	return store, nil
}

func NewFromDB(db *bun.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	store := &Store{}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	records, err := NewRecordStore(db)
	if err != nil {
		return nil, err
	}
	usernames, err := NewUsernameIndex(db, store.cache)
	if err != nil {
		return nil, err
	}
	store.RecordStore = records
	store.UsernameIndex = usernames
	return store, nil
}

func (s *Store) DB() *bun.DB {
	if s == nil || s.RecordStore == nil {
		return nil
	}
	return s.RecordStore.db
}

// Close releases the connection when the store opened it.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func resolveDB(client *persistence.Client) *bun.DB {
	if client == nil {
		return nil
	}
	return client.DB()
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", DriverSQLite:
		return DriverSQLite
	case "pg", "postgresql", DriverPostgres:
		return DriverPostgres
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}
