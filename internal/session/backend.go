package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Joseda-hg/tasktracker/internal/db"
)

// ErrNoRecord is returned by a Backend when the key holds nothing.
var ErrNoRecord = errors.New("no record")

// Backend is the durable key-value storage behind a Store.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNoRecord
	}
	return value, nil
}

func (m *MemoryBackend) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// SQLiteBackend adapts a db.Store.
type SQLiteBackend struct {
	store *db.Store
}

func NewSQLiteBackend(store *db.Store) *SQLiteBackend {
	return &SQLiteBackend{store: store}
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.store.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNoRecord
	}
	return value, err
}

func (b *SQLiteBackend) Put(ctx context.Context, key, value string) error {
	return b.store.Put(ctx, key, value)
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, key)
}

// FileBackend keeps all keys in one JSON object on disk, readable by the owner only.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNoRecord
	}
	return value, nil
}

func (f *FileBackend) Put(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking every future login.
		values = make(map[string]string)
	}
	values[key] = value
	return f.write(values)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// Corrupt file: drop it so the key is gone either way.
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return rmErr
		}
		return nil
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file %s: %w", f.path, err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileBackend) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}
