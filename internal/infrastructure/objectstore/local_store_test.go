package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/domain/note"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(&config.Config{LocalStoragePath: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	meta := map[string]string{"title": "Buy%20milk"}
	require.NoError(t, store.Put(ctx, "u@x.com/n1.md", []byte("Buy milk"), "text/markdown; charset=utf-8", meta))

	data, info, err := store.Get(ctx, "u@x.com/n1.md")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", string(data))
	assert.Equal(t, "text/markdown; charset=utf-8", info.ContentType)
	assert.Equal(t, meta, info.Metadata)

	head, err := store.Head(ctx, "u@x.com/n1.md")
	require.NoError(t, err)
	assert.Equal(t, int64(8), head.Size)

	require.NoError(t, store.Delete(ctx, "u@x.com/n1.md"))
	_, err = store.Head(ctx, "u@x.com/n1.md")
	assert.True(t, errors.Is(err, note.ErrObjectNotFound))
	_, _, err = store.Get(ctx, "u@x.com/n1.md")
	assert.True(t, errors.Is(err, note.ErrObjectNotFound))

	assert.NoError(t, store.Delete(ctx, "u@x.com/missing.md"))
}

func TestLocalStoreListSkipsAttributesAndOtherUsers(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"u@x.com/b.md", "u@x.com/a.md", "u@x.com/.metadata/a.json", "v@x.com/c.md"} {
		require.NoError(t, store.Put(ctx, key, []byte("x"), "text/plain", nil))
	}

	objects, err := store.List(ctx, "u@x.com/", 0)
	require.NoError(t, err)
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"u@x.com/.metadata/a.json", "u@x.com/a.md", "u@x.com/b.md"}, keys)

	objects, err = store.List(ctx, "u@x.com/", 2)
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	objects, err = store.List(ctx, "nobody@x.com/", 10)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	assert.Error(t, store.Put(ctx, "../escape.md", []byte("x"), "text/plain", nil))
	assert.Error(t, store.Put(ctx, "u@x.com/a.md.objmeta", []byte("x"), "text/plain", nil))
	_, err := store.Head(ctx, "/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStoreHealth(t *testing.T) {
	assert.NoError(t, newLocal(t).Health(context.Background()))
}

func TestNewLocalStoreRequiresPath(t *testing.T) {
	_, err := NewLocalStore(&config.Config{}, zerolog.Nop())
	assert.Error(t, err)
}


func TestNewSelectsLocalBackend(t *testing.T) {
	store, err := New(context.Background(), &config.Config{StorageBackend: "local", LocalStoragePath: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	_, ok := store.(*LocalStore)
	assert.True(t, ok)
}
