package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store BlobStore) {
	t.Helper()

	ctx := context.Background()

	t.Run("put then open", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "run/output.grd", strings.NewReader("payload")))

		rc, err := store.Open(ctx, "run/output.grd")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("put replaces content", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "k", strings.NewReader("v1")))
		require.NoError(t, store.Put(ctx, "k", strings.NewReader("v2")))

		rc, err := store.Open(ctx, "k")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := store.Open(ctx, "does/not/exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testStore(t, store)
	assert.Equal(t, 2, store.Len())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}
