// Package storetest holds conformance checks shared by every
// core.RecordStore and core.UsernameIndex backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-accounts/core"
)

type Store interface {
	core.RecordStore
	core.UsernameIndex
}

type Factory func(t *testing.T) Store

// Run executes every conformance check against a fresh store per check.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	checks := map[string]func(context.Context, Store) error{
		"record_fields":      ValidateRecordStore,
		"record_existence":   ValidateRecordExistence,
		"username_index":     ValidateUsernameIndex,
		"username_contended": ValidateUsernameContention,
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(context.Background(), factory(t)); err != nil {
				t.Fatalf("%v", err)
			}
		})
	}
}

func ValidateRecordStore(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("storetest: store is required")
	}
	if _, err := store.GetField(ctx, "u-fields", "spotify_access_token"); !errors.Is(err, core.ErrFieldNotFound) {
		return fmt.Errorf("storetest: expected ErrFieldNotFound for absent record, got %v", err)
	}
	if err := store.SetField(ctx, "u-fields", core.FieldUsername, "alice"); err != nil {
		return fmt.Errorf("storetest: set username: %w", err)
	}
	if err := store.SetField(ctx, "u-fields", "spotify_state", "S1"); err != nil {
		return fmt.Errorf("storetest: set state: %w", err)
	}
	if err := store.SetField(ctx, "u-fields", "spotify_state", "S2"); err != nil {
		return fmt.Errorf("storetest: overwrite state: %w", err)
	}
	value, err := store.GetField(ctx, "u-fields", "spotify_state")
	if err != nil || value != "S2" {
		return fmt.Errorf("storetest: expected overwritten state S2, got %q (%v)", value, err)
	}
	if _, err := store.GetField(ctx, "u-fields", "reddit_state"); !errors.Is(err, core.ErrFieldNotFound) {
		return fmt.Errorf("storetest: expected ErrFieldNotFound for absent field, got %v", err)
	}

	all, err := store.GetAll(ctx, "u-fields")
	if err != nil {
		return fmt.Errorf("storetest: get all: %w", err)
	}
	if len(all) != 2 || all[core.FieldUsername] != "alice" || all["spotify_state"] != "S2" {
		return fmt.Errorf("storetest: unexpected record %v", all)
	}
	all[core.FieldUsername] = "mutated"
	if value, _ := store.GetField(ctx, "u-fields", core.FieldUsername); value != "alice" {
		return fmt.Errorf("storetest: GetAll must return a copy")
	}

	if err := store.DeleteFields(ctx, "u-fields", "spotify_state", "never_set"); err != nil {
		return fmt.Errorf("storetest: delete fields: %w", err)
	}
	if _, err := store.GetField(ctx, "u-fields", "spotify_state"); !errors.Is(err, core.ErrFieldNotFound) {
		return fmt.Errorf("storetest: expected deleted field to be absent, got %v", err)
	}
	if err := store.DeleteFields(ctx, "u-fields"); err != nil {
		return fmt.Errorf("storetest: delete of no fields: %w", err)
	}
	empty, err := store.GetAll(ctx, "u-missing")
	if err != nil {
		return fmt.Errorf("storetest: get all absent: %w", err)
	}
	if len(empty) != 0 {
		return fmt.Errorf("storetest: expected empty map for absent record, got %v", empty)
	}
	return nil
}

func ValidateRecordExistence(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("storetest: store is required")
	}
	exists, err := store.Exists(ctx, "u-exists")
	if err != nil || exists {
		return fmt.Errorf("storetest: expected absent record, got exists=%v err=%v", exists, err)
	}
	if err := store.SetField(ctx, "u-exists", core.FieldID, "u-exists"); err != nil {
		return fmt.Errorf("storetest: set id: %w", err)
	}
	exists, err = store.Exists(ctx, "u-exists")
	if err != nil || !exists {
		return fmt.Errorf("storetest: expected record after first field, got exists=%v err=%v", exists, err)
	}
	if err := store.DeleteFields(ctx, "u-exists", core.FieldID); err != nil {
		return fmt.Errorf("storetest: delete last field: %w", err)
	}
	exists, err = store.Exists(ctx, "u-exists")
	if err != nil || exists {
		return fmt.Errorf("storetest: expected record gone with its last field, got exists=%v err=%v", exists, err)
	}

	if err := store.SetField(ctx, "u-exists", core.FieldID, "u-exists"); err != nil {
		return fmt.Errorf("storetest: set id: %w", err)
	}
	if err := store.Delete(ctx, "u-exists"); err != nil {
		return fmt.Errorf("storetest: delete record: %w", err)
	}
	if exists, _ := store.Exists(ctx, "u-exists"); exists {
		return fmt.Errorf("storetest: expected deleted record to be absent")
	}
	if err := store.Delete(ctx, "u-exists"); err != nil {
		return fmt.Errorf("storetest: delete of absent record should succeed: %w", err)
	}
	return nil
}

func ValidateUsernameIndex(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("storetest: store is required")
	}
	if _, err := store.Lookup(ctx, "alice"); !errors.Is(err, core.ErrUsernameNotFound) {
		return fmt.Errorf("storetest: expected ErrUsernameNotFound, got %v", err)
	}
	reserved, err := store.Reserve(ctx, "alice", "u-1")
	if err != nil || !reserved {
		return fmt.Errorf("storetest: expected first reservation, got %v (%v)", reserved, err)
	}
	reserved, err = store.Reserve(ctx, "alice", "u-2")
	if err != nil || reserved {
		return fmt.Errorf("storetest: expected second reservation to fail, got %v (%v)", reserved, err)
	}
	userID, err := store.Lookup(ctx, "alice")
	if err != nil || userID != "u-1" {
		return fmt.Errorf("storetest: expected u-1, got %q (%v)", userID, err)
	}
	if err := store.Release(ctx, "alice"); err != nil {
		return fmt.Errorf("storetest: release: %w", err)
	}
	if _, err := store.Lookup(ctx, "alice"); !errors.Is(err, core.ErrUsernameNotFound) {
		return fmt.Errorf("storetest: expected released username to be absent, got %v", err)
	}
	reserved, err = store.Reserve(ctx, "alice", "u-3")
	if err != nil || !reserved {
		return fmt.Errorf("storetest: expected released username to be reservable, got %v (%v)", reserved, err)
	}
	if err := store.Release(ctx, "nobody"); err != nil {
		return fmt.Errorf("storetest: release of unknown username should succeed: %w", err)
	}
	return nil
}

// ValidateUsernameContention races reservations of one username and
// expects exactly one winner.
func ValidateUsernameContention(ctx context.Context, store Store) error {
	if store == nil {
		return fmt.Errorf("storetest: store is required")
	}
	const contenders = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for i := range contenders {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ok, err := store.Reserve(ctx, "contended", fmt.Sprintf("u-%d", id))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				wins++
			}
		}(i)
	}
	wg.Wait()
	if len(errs) > 0 {
		return fmt.Errorf("storetest: reservation errors: %w", errors.Join(errs...))
	}
	if wins != 1 {
		return fmt.Errorf("storetest: expected exactly one reservation winner, got %d", wins)
	}
	return nil
}
