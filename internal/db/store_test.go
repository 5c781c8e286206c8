package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestPutGetReplaces(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Put(ctx, "user", `{"token":"t1"}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "user", `{"token":"t2"}`); err != nil {
		t.Fatalf("put again: %v", err)
	}

	value, err := store.Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != `{"token":"t2"}` {
		t.Fatalf("expected replaced value, got %q", value)
	}

	var rows int
	if err := store.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single row, got %d", rows)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Put(ctx, "user", "x"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := store.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlankKeyRejected(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.Put(context.Background(), "  ", "x"); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := NewStore(first).Put(ctx, "user", "persisted"); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	value, err := NewStore(second).Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "persisted" {
		t.Fatalf("expected persisted value, got %q", value)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}
