package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pocketbase/dbx"

	"github.com/yourorg/wanderplan/internal/db"
)

// Storage is the durable key/value store behind a Session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SQLiteStorage keeps session state in a local SQLite file, one per install.
type SQLiteStorage struct {
	db *dbx.DB
}

// OpenSQLiteStorage opens (or creates) the session file at path.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	sqlDB, err := db.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	s := &SQLiteStorage{db: dbx.NewFromDB(sqlDB, db.DialectSQLite)}
	_, err = s.db.NewQuery(`CREATE TABLE IF NOT EXISTS session_state (
		name TEXT NOT NULL PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`).Execute()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create session_state: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.Select("value").From("session_state").
		Where(dbx.HashExp{"name": key}).
		WithContext(ctx).Row(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.NewQuery(`INSERT INTO session_state (name, value, updated_at)
		VALUES ({:name}, {:value}, {:at})
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`).
		Bind(dbx.Params{"name": key, "value": value, "at": time.Now().UnixMilli()}).
		WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("write session %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = k
	}
	if _, err := s.db.Delete("session_state", dbx.In("name", values...)).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// MemoryStorage is a non-durable Storage for tests and one-shot tools.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
