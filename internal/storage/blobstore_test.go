package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStoreUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, id, err := store.Upload(context.Background(), []byte{0x89, 0x50, 0x4E, 0x47}, "image/png")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/uploads/"+id, url)
	require.True(t, strings.HasSuffix(id, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, id))
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, data)

	require.NoError(t, store.Delete(context.Background(), id))
	_, err = os.Stat(filepath.Join(dir, id))
	require.True(t, os.IsNotExist(err))

	// Deleting an already-gone blob is fine.
	require.NoError(t, store.Delete(context.Background(), id))
}

func TestDiskStoreRejectsBadUploads(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	_, _, err = store.Upload(context.Background(), []byte("hello"), "text/plain")
	require.ErrorIs(t, err, ErrNotImage)

	_, _, err = store.Upload(context.Background(), make([]byte, MaxBlobSize+1), "image/png")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestDiskStoreDeleteRejectsPaths(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	require.Error(t, store.Delete(context.Background(), "../etc/passwd"))
}
