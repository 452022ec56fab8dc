package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-accounts/core"
)

// DefaultUsernamesKey is the hash that maps usernames to user ids.
const DefaultUsernamesKey = "usernames"

type Option func(*Store)

// WithKeyPrefix namespaces every user hash key. Empty by default so a
// record lives at the bare user id.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSpace(prefix)
	}
}

func WithUsernamesKey(key string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			s.usernamesKey = trimmed
		}
	}
}

// Store keeps one Redis hash per user and a single username hash.
type Store struct {
	client       redis.UniversalClient
	prefix       string
	usernamesKey string
	owned        bool
}

func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}
	store := &Store{client: client, usernamesKey: DefaultUsernamesKey}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Open parses a redis:// URI, connects and pings the server.
func Open(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	options, err := redis.ParseURL(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse uri: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	store, err := New(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// Close releases the client when the store opened it.
func (s *Store) Close() error {
	if s == nil || !s.owned {
		return nil
	}
	return s.client.Close()
}

func (s *Store) GetField(ctx context.Context, userID string, field string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(userID), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrFieldNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: hget %s: %w", field, err)
	}
	return value, nil
}

func (s *Store) SetField(ctx context.Context, userID string, field string, value string) error {
	if err := s.client.HSet(ctx, s.key(userID), field, value).Err(); err != nil {
		return fmt.Errorf("redisstore: hset %s: %w", field, err)
	}
	return nil
}

func (s *Store) DeleteFields(ctx context.Context, userID string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key(userID), fields...).Err(); err != nil {
		return fmt.Errorf("redisstore: hdel: %w", err)
	}
	return nil
}

func (s *Store) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: hgetall: %w", err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redisstore: del: %w", err)
	}
	return nil
}

// Reserve relies on HSETNX so concurrent registrations of one username
// have a single winner.
func (s *Store) Reserve(ctx context.Context, username string, userID string) (bool, error) {
	ok, err := s.client.HSetNX(ctx, s.usernamesKey, username, strings.TrimSpace(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: hsetnx username: %w", err)
	}
	return ok, nil
}

func (s *Store) Lookup(ctx context.Context, username string) (string, error) {
	userID, err := s.client.HGet(ctx, s.usernamesKey, username).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrUsernameNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: hget username: %w", err)
	}
	return userID, nil
}

func (s *Store) Release(ctx context.Context, username string) error {
	if err := s.client.HDel(ctx, s.usernamesKey, username).Err(); err != nil {
		return fmt.Errorf("redisstore: hdel username: %w", err)
	}
	return nil
}

func (s *Store) key(userID string) string {
	return s.prefix + strings.TrimSpace(userID)
}

var (
	_ core.RecordStore   = (*Store)(nil)
	_ core.UsernameIndex = (*Store)(nil)
)
