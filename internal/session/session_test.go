package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Joseda-hg/tasktracker/internal/db"
	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": NewSQLiteBackend(db.NewStore(conn)),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "session.json")),
	}
}

func TestSaveLoadClear(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(backend, logging.Discard())

			_, ok := store.Load(ctx)
			assert.False(t, ok, "fresh store should be logged out")

			cred := model.Credential{Token: "t1", Username: "alice"}
			require.NoError(t, store.Save(ctx, cred))

			got, ok := store.Load(ctx)
			require.True(t, ok)
			assert.Equal(t, cred, got)

			require.NoError(t, store.Save(ctx, model.Credential{Token: "t2", Username: "alice"}))
			got, _ = store.Load(ctx)
			assert.Equal(t, "t2", got.Token)

			require.NoError(t, store.Clear(ctx))
			_, ok = store.Load(ctx)
			assert.False(t, ok)

			require.NoError(t, store.Clear(ctx), "clear should be idempotent")
		})
	}
}

func TestLoadMalformedRecordIsAbsent(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"", "{", "null", `{"token":""}`, `["t1"]`} {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Put(ctx, Key, raw))
		store := NewStore(backend, logging.Discard())

		_, ok := store.Load(ctx)
		assert.False(t, ok, "record %q should read as absent", raw)
	}
}

func TestLoadCorruptFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	store := NewStore(NewFileBackend(path), logging.Discard())

	_, ok := store.Load(context.Background())
	assert.False(t, ok)

	require.NoError(t, store.Save(context.Background(), model.Credential{Token: "t1"}))
	_, ok = store.Load(context.Background())
	assert.True(t, ok, "save should recover a corrupt file")
}

func TestSaveRejectsEmptyToken(t *testing.T) {
	store := NewStore(NewMemoryBackend(), logging.Discard())
	err := store.Save(context.Background(), model.Credential{Username: "alice"})
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestClearNotifiesListeners(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), logging.Discard())
	require.NoError(t, store.Save(ctx, model.Credential{Token: "t1"}))

	var calls int
	var sawAbsent bool
	unsubscribe := store.OnLogout(func() {
		calls++
		_, ok := store.Load(ctx)
		sawAbsent = !ok
	})

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 1, calls)
	assert.True(t, sawAbsent, "listener should observe the cleared record")

	unsubscribe()
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 1, calls)
}

func TestFileBackendPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewStore(NewFileBackend(path), logging.Discard())
	require.NoError(t, store.Save(context.Background(), model.Credential{Token: "t1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
