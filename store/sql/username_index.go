package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-accounts/core"
)

const usernameCacheKeyPrefix = "go-accounts::username::v1"

// UsernameIndex maps usernames to user ids with a unique username
// column. Lookups go through an optional read cache that Release
// invalidates.
type UsernameIndex struct {
	db    *bun.DB
	repo  repository.Repository[*usernameRecord]
	cache repositorycache.CacheService
}

func NewUsernameIndex(db *bun.DB, cacheService repositorycache.CacheService) (*UsernameIndex, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*usernameRecord](db, usernameHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid username repository wiring: %w", err)
		}
	}
	return &UsernameIndex{db: db, repo: repo, cache: cacheService}, nil
}

// UsernameCacheKey returns go-accounts::username::v1::<username> with the
// username URL-path escaped.
func UsernameCacheKey(username string) string {
	return usernameCacheKeyPrefix + "::" + url.PathEscape(username)
}

// Reserve inserts with ON CONFLICT DO NOTHING so the unique index decides
// the winner between concurrent registrations.
func (s *UsernameIndex) Reserve(ctx context.Context, username string, userID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: username index is not configured")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO account_usernames (id, username, user_id, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (username) DO NOTHING`,
		uuid.NewString(), username, strings.TrimSpace(userID), time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *UsernameIndex) Lookup(ctx context.Context, username string) (string, error) {
	if s == nil || s.repo == nil {
		return "", fmt.Errorf("sqlstore: username index is not configured")
	}
	if s.cache == nil {
		return s.lookup(ctx, username)
	}
	userID, err := repositorycache.GetOrFetch(ctx, s.cache, UsernameCacheKey(username), func(ctx context.Context) (string, error) {
		return s.lookup(ctx, username)
	})
	if errors.Is(err, core.ErrUsernameNotFound) {
		return "", core.ErrUsernameNotFound
	}
	return userID, err
}

func (s *UsernameIndex) Release(ctx context.Context, username string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: username index is not configured")
	}
	if _, err := s.db.NewDelete().
		Model((*usernameRecord)(nil)).
		Where("username = ?", username).
		Exec(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, UsernameCacheKey(username)); err != nil {
			return err
		}
	}
	return nil
}

func (s *UsernameIndex) lookup(ctx context.Context, username string) (string, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("username", "=", username),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return "", err
	}
	if len(records) == 0 || records[0] == nil {
		return "", core.ErrUsernameNotFound
	}
	return records[0].UserID, nil
}
