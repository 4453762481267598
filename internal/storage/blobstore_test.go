package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	key, err := NewKey("../../etc/lab results.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_lab_results.pdf"))
	assert.NotContains(t, key, "/")

	_, err = NewKey("  ")
	assert.ErrorIs(t, err, ErrMissingFileName)
}

func TestBlobStores(t *testing.T) {
	local, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]BlobStore{
		"local":  local,
		"memory": NewMemoryBlobStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			key, size, err := store.Put(ctx, "scan.png", strings.NewReader("pixels"), 1024)
			require.NoError(t, err)
			assert.Equal(t, int64(6), size)

			rc, err := store.Open(ctx, key)
			require.NoError(t, err)
			body, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "pixels", string(body))

			_, _, err = store.Put(ctx, "big.pdf", strings.NewReader("0123456789"), 4)
			assert.ErrorIs(t, err, ErrFileTooLarge)

			require.NoError(t, store.Delete(ctx, key))
			_, err = store.Open(ctx, key)
			assert.ErrorIs(t, err, ErrBlobNotFound)
		})
	}
}

func TestLocalBlobStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
