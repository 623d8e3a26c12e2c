package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseBlobStore(t *testing.T, blobs BlobStore) {
	t.Helper()

	_, ok, err := blobs.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blobs.Set(KeyHistory, `[{"id":"1"}]`))
	v, ok, err := blobs.Get(KeyHistory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, blobs.Set(KeyHistory, `[]`))
	v, _, err = blobs.Get(KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, blobs.Set("weird/../key with spaces", "x"))
	v, ok, err = blobs.Get("weird/../key with spaces")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	require.NoError(t, blobs.Delete(KeyHistory))
	require.NoError(t, blobs.Delete(KeyHistory))
	_, ok, err = blobs.Get(KeyHistory)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBlobStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryBlobStore())
}

func TestFileBlobStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")
	blobs, err := NewBlobStore("file", dir)
	require.NoError(t, err)
	defer blobs.Close()

	exerciseBlobStore(t, blobs)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), " ")
		assert.False(t, filepath.Ext(e.Name()) == ".tmp")
	}
}

func TestSQLiteBlobStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqdesk.db")
	blobs, err := NewBlobStore("sqlite", path)
	require.NoError(t, err)

	exerciseBlobStore(t, blobs)
	require.NoError(t, blobs.Set(KeyActiveEnv, "e1"))
	require.NoError(t, blobs.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secureFileMode), info.Mode().Perm())

	reopened, err := NewBlobStore("sqlite", path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(KeyActiveEnv)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "e1", v)
}

func TestBoltBlobStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reqdesk.bolt")
	blobs, err := NewBlobStore("bbolt", path)
	require.NoError(t, err)
	defer blobs.Close()

	exerciseBlobStore(t, blobs)
}

func TestSQLiteMigratesFileBlobs(t *testing.T) {
	dir := t.TempDir()
	files, err := openFileStore(filepath.Join(dir, legacyBlobDir))
	require.NoError(t, err)
	require.NoError(t, files.Set(KeyRequests, `[{"id":"legacy"}]`))

	blobs, err := NewBlobStore("sqlite", filepath.Join(dir, "reqdesk.db"))
	require.NoError(t, err)
	defer blobs.Close()

	v, ok, err := blobs.Get(KeyRequests)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"legacy"}]`, v)

	_, err = os.Stat(files.keyPath(KeyRequests) + ".migrated")
	assert.NoError(t, err)
}

func TestNewBlobStoreValidation(t *testing.T) {
	_, err := NewBlobStore("redis", "x")
	assert.ErrorIs(t, err, ErrUnsupportedStore)

	_, err = NewBlobStore("sqlite", " ")
	assert.Error(t, err)

	blobs, err := NewBlobStore("none", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryBlobStore{}, blobs)
}

func TestStoreOverEveryBackend(t *testing.T) {
	dir := t.TempDir()
	for _, typ := range []string{"memory", "file", "sqlite", "bbolt"} {
		t.Run(typ, func(t *testing.T) {
			blobs, err := NewBlobStore(typ, filepath.Join(dir, typ))
			require.NoError(t, err)
			store := NewStore(blobs, nil)
			defer store.Close()

			req := newTestRequest("r1")
			store.SaveRequest(req)
			store.AppendHistory(newTestEntry(1))

			assert.Equal(t, []string{"r1"}, []string{store.SavedRequests()[0].ID})
			assert.Len(t, store.History(), 1)
		})
	}
}
