package core

import (
	"context"
	"strings"
	"sync"
)

// MemoryRecordStore is an in-process RecordStore and UsernameIndex.
type MemoryRecordStore struct {
	mu        sync.RWMutex
	records   map[string]map[string]string
	usernames map[string]string
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records:   map[string]map[string]string{},
		usernames: map[string]string{},
	}
}

func (s *MemoryRecordStore) GetField(_ context.Context, userID string, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[strings.TrimSpace(userID)]
	if !ok {
		return "", ErrFieldNotFound
	}
	value, ok := record[field]
	if !ok {
		return "", ErrFieldNotFound
	}
	return value, nil
}

func (s *MemoryRecordStore) SetField(_ context.Context, userID string, field string, value string) error {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		record = map[string]string{}
		s.records[userID] = record
	}
	record[field] = value
	return nil
}

func (s *MemoryRecordStore) DeleteFields(_ context.Context, userID string, fields ...string) error {
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return nil
	}
	for _, field := range fields {
		delete(record, field)
	}
	if len(record) == 0 {
		delete(s.records, userID)
	}
	return nil
}

func (s *MemoryRecordStore) GetAll(_ context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record := s.records[strings.TrimSpace(userID)]
	out := make(map[string]string, len(record))
	for key, value := range record {
		out[key] = value
	}
	return out, nil
}

func (s *MemoryRecordStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[strings.TrimSpace(userID)]
	return ok, nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, strings.TrimSpace(userID))
	return nil
}

func (s *MemoryRecordStore) Reserve(_ context.Context, username string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[username]; taken {
		return false, nil
	}
	s.usernames[username] = strings.TrimSpace(userID)
	return true, nil
}

func (s *MemoryRecordStore) Lookup(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.usernames[username]
	if !ok {
		return "", ErrUsernameNotFound
	}
	return userID, nil
}

func (s *MemoryRecordStore) Release(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.usernames, username)
	return nil
}
