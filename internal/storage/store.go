package storage

import (
	"context"
	"errors"
	"sync"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=storage_test

var ErrNotFound = errors.New("record not found")

// Record keys. Every value is a JSON document.
const (
	KeyProgram         = "workout_program"
	KeyLogs            = "workout_logs"
	KeyWeeklySchedules = "weekly_schedules"
	KeyPasswordHash    = "password_hash"
)

// Store is a key/value record store. Get returns ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps records in process memory. Used in tests and local development.
type MemoryStore struct {
	mutex   sync.RWMutex
	records map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, ok := s.records[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.records, key)
	return nil
}
