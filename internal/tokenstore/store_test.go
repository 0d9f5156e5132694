package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) (*Store, *FileKV) {
	t.Helper()

	kv, err := NewFileKV(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)
	return New(kv), kv
}

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	rec := Record{Token: "t1", Role: "student", UserData: `{"id":7,"username":"alice","role":"student"}`}
	require.NoError(t, store.Write(ctx, rec))
	require.NoError(t, store.Remember(ctx, Remembered{Role: "student", Username: "alice", Remember: true}))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.True(t, got.Complete())

	remembered, err := store.Remembered(ctx)
	require.NoError(t, err)
	assert.Equal(t, Remembered{Role: "student", Username: "alice", Remember: true}, remembered)

	require.NoError(t, store.Clear(ctx))

	cleared, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, cleared.Empty())

	remembered, err = store.Remembered(ctx)
	require.NoError(t, err)
	assert.Equal(t, Remembered{}, remembered)
}

func TestMemoryStoreContract(t *testing.T) {
	exerciseStore(t, New(NewMemoryKV()))
}

func TestFileStoreContract(t *testing.T) {
	store, _ := newFileStore(t)
	exerciseStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, kv := newFileStore(t)

	require.NoError(t, store.Write(ctx, Record{Token: "t2", Role: "teacher", UserData: `{"username":"bob"}`}))

	reopenedKV, err := NewFileKV(kv.Path())
	require.NoError(t, err)
	got, err := New(reopenedKV).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Token)

	info, err := os.Stat(kv.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorruptedFile(t *testing.T) {
	ctx := context.Background()
	store, kv := newFileStore(t)
	require.NoError(t, os.WriteFile(kv.Path(), []byte("{not json"), 0o600))

	_, err := store.Read(ctx)
	require.Error(t, err)

	require.NoError(t, store.Clear(ctx))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestPartialRecordIsNotComplete(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyToken, "t1"))

	got, err := New(kv).Read(ctx)
	require.NoError(t, err)
	assert.False(t, got.Complete())
	assert.False(t, got.Empty())
}

func TestNewFileKVRequiresPath(t *testing.T) {
	_, err := NewFileKV("  ")
	assert.Error(t, err)
}
