package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-accounts/core"
	sqlstore "github.com/goliatone/go-accounts/store/sql"
	"github.com/goliatone/go-accounts/store/storetest"
)

func newSQLiteStore(t *testing.T, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()
	dsn := fmt.Sprintf(
		"file:accounts-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: "sqlite3",
		DSN:    dsn,
	}, opts...)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestUsernameCache(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	store := newSQLiteStore(t)
	for _, table := range []string{"account_fields", "account_usernames"} {
		var name string
		if err := store.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &name); err != nil {
			t.Fatalf("query sqlite master: %v", err)
		}
		if name != table {
			t.Fatalf("expected %s table, got %q", table, name)
		}
	}
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return newSQLiteStore(t)
	})
}

func TestStore_ConformanceWithUsernameCache(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return newSQLiteStore(t, sqlstore.WithUsernameCache(newTestUsernameCache(t)))
	})
}

func TestUsernameIndex_CacheServesRepeatLookupsAndReleaseInvalidates(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t, sqlstore.WithUsernameCache(newTestUsernameCache(t)))

	if ok, err := store.Reserve(ctx, "alice", "u-1"); err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if userID, err := store.Lookup(ctx, "alice"); err != nil || userID != "u-1" {
		t.Fatalf("lookup: %q %v", userID, err)
	}

	// Bypass the index so only the cache can answer the next lookup.
	if _, err := store.DB().ExecContext(ctx, "DELETE FROM account_usernames WHERE username = ?", "alice"); err != nil {
		t.Fatalf("delete row: %v", err)
	}
	if userID, err := store.Lookup(ctx, "alice"); err != nil || userID != "u-1" {
		t.Fatalf("expected cached lookup, got %q %v", userID, err)
	}

	if err := store.Release(ctx, "alice"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := store.Lookup(ctx, "alice"); !errors.Is(err, core.ErrUsernameNotFound) {
		t.Fatalf("expected ErrUsernameNotFound after release, got %v", err)
	}
}

func TestUsernameCacheKey_EscapesUsername(t *testing.T) {
	if got := sqlstore.UsernameCacheKey("a/b c"); got != "go-accounts::username::v1::a%2Fb%20c" {
		t.Fatalf("unexpected cache key %q", got)
	}
}

func TestStore_BacksAccountService(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	svc, err := core.NewService(core.DefaultConfig(),
		core.WithRecordStore(store),
		core.WithUsernameIndex(store),
		core.WithPasswordHasher(prefixHasher{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	userID, err := svc.Register(ctx, core.RegisterRequest{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, core.RegisterRequest{Username: "alice", Password: "correct-horse"}); !core.IsAlreadyExists(err) {
		t.Fatalf("expected already exists, got %v", err)
	}
	loggedIn, err := svc.Login(ctx, core.LoginRequest{Username: "alice", Password: "correct-horse"})
	if err != nil || loggedIn != userID {
		t.Fatalf("login: %q %v", loggedIn, err)
	}
	if err := svc.DeleteAccount(ctx, userID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if exists, _ := store.Exists(ctx, userID); exists {
		t.Fatalf("expected record removed")
	}
	if _, err := store.Lookup(ctx, "alice"); !errors.Is(err, core.ErrUsernameNotFound) {
		t.Fatalf("expected username released, got %v", err)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "sqlite3"}); err == nil {
		t.Fatalf("expected dsn error")
	}
	if _, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

type prefixHasher struct{}

func (prefixHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (prefixHasher) Verify(password string, encoded string) (bool, error) {
	return encoded == "plain$"+password, nil
}
