package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-accounts/core"
)

// RecordStore keeps user hashes as (user_id, field) rows.
type RecordStore struct {
	db *bun.DB
}

func NewRecordStore(db *bun.DB) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &RecordStore{db: db}, nil
}

func (s *RecordStore) GetField(ctx context.Context, userID string, field string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("sqlstore: record store is not configured")
	}
	record := &fieldRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Where("?TableAlias.field = ?", field).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrFieldNotFound
	}
	if err != nil {
		return "", err
	}
	return record.Value, nil
}

func (s *RecordStore) SetField(ctx context.Context, userID string, field string, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: record store is not configured")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_fields (user_id, field, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, field) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		strings.TrimSpace(userID), field, value, time.Now().UTC(),
	)
	return err
}

func (s *RecordStore) DeleteFields(ctx context.Context, userID string, fields ...string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: record store is not configured")
	}
	if len(fields) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*fieldRecord)(nil)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("field IN (?)", bun.In(fields)).
		Exec(ctx)
	return err
}

func (s *RecordStore) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: record store is not configured")
	}
	records := []fieldRecord{}
	if err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Scan(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(records))
	for _, record := range records {
		out[record.Field] = record.Value
	}
	return out, nil
}

func (s *RecordStore) Exists(ctx context.Context, userID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: record store is not configured")
	}
	return s.db.NewSelect().
		Model((*fieldRecord)(nil)).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Exists(ctx)
}

func (s *RecordStore) Delete(ctx context.Context, userID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: record store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*fieldRecord)(nil)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Exec(ctx)
	return err
}
