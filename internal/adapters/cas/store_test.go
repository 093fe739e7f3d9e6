package cas_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/xbuild/internal/adapters/cas"
	"go.trai.ch/xbuild/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	store := cas.NewStore(dir)

	record := domain.ArtifactRecord{
		URL:       "https://github.com/cloudpeers/x/releases/download/v0.1.0+2/Android.ndk.tar.zst",
		Output:    "/cache/Android.ndk",
		Digest:    "af1349b9",
		Size:      1024,
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(record))

	got, err := store.Get("/cache/Android.ndk")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record, *got)

	// Equivalent paths share a key.
	got, err = store.Get("/cache/./Android.ndk")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestStore_GetMissing(t *testing.T) {
	store := cas.NewStore(t.TempDir())

	got, err := store.Get("/cache/none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GetCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := cas.NewStore(dir)
	require.NoError(t, store.Put(domain.ArtifactRecord{Output: "/cache/x"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{"), 0o600))

	_, err = store.Get("/cache/x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnmarshalFailed))
}

func TestStore_Prune(t *testing.T) {
	cache := t.TempDir()
	store := cas.NewStore(filepath.Join(cache, "store"))

	kept := filepath.Join(cache, "download", "Android.ndk.tar.zst")
	require.NoError(t, os.MkdirAll(filepath.Dir(kept), 0o750))
	require.NoError(t, os.WriteFile(kept, []byte("ndk"), 0o600))

	require.NoError(t, store.Put(domain.ArtifactRecord{Output: "/cache/Android.ndk", Payload: kept}))
	require.NoError(t, store.Put(domain.ArtifactRecord{
		Output:  "/cache/Windows.sdk",
		Payload: filepath.Join(cache, "download", "Windows.sdk.tar.zst"),
	}))

	pruned, err := store.Prune()
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, "/cache/Windows.sdk", pruned[0].Output)

	got, err := store.Get("/cache/Windows.sdk")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get("/cache/Android.ndk")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestStore_PruneEmpty(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), "missing"))

	pruned, err := store.Prune()
	require.NoError(t, err)
	assert.Empty(t, pruned)
}
