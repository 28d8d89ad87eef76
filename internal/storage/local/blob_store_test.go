package local_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/inat-harvester/internal/storage/local"
)

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after == 0 {
		return 0, errors.New("connection reset")
	}
	n := min(r.after, len(p))
	for i := range n {
		p[i] = 'x'
	}
	r.after -= n
	return n, nil
}

func TestNew(t *testing.T) {
	t.Run("ExistingDir", func(t *testing.T) {
		dir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, store.BaseDir())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "write probe should be removed")
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{BaseDir: "  "})
		assert.Error(t, err)
	})

	t.Run("CreatesNestedBaseDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out", "photos")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseDirIsAFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "photos")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.ErrorContains(t, err, "not a directory")
	})
}

func TestPutObject(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("WritesFile", func(t *testing.T) {
		written, err := store.PutObject(ctx, "123_1.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg bytes")))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "123_1.jpg"), written)

		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(written)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(got))
	})

	t.Run("CreatesSubdirectories", func(t *testing.T) {
		written, err := store.PutObject(ctx, "exports/run.csv", "text/csv", strings.NewReader("a,b\n"))
		require.NoError(t, err)
		assert.FileExists(t, written)
	})

	t.Run("OverwritesExisting", func(t *testing.T) {
		_, err := store.PutObject(ctx, "9_1.png", "image/png", strings.NewReader("old"))
		require.NoError(t, err)
		written, err := store.PutObject(ctx, "9_1.png", "image/png", strings.NewReader("new"))
		require.NoError(t, err)
		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(written)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("FailedReadLeavesNothing", func(t *testing.T) {
		_, err := store.PutObject(ctx, "77_1.jpg", "image/jpeg", &failingReader{after: 10})
		require.ErrorContains(t, err, "connection reset")

		ok, err := store.Exists(ctx, "77_1.jpg")
		require.NoError(t, err)
		assert.False(t, ok)

		matches, err := filepath.Glob(filepath.Join(dir, ".partial-*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(ctx, "", "text/plain", strings.NewReader("data"))
		assert.Error(t, err)
	})

	t.Run("TraversalRejected", func(t *testing.T) {
		_, err := store.PutObject(ctx, "../escape.txt", "text/plain", strings.NewReader("x"))
		assert.ErrorIs(t, err, local.ErrOutsideRoot)
	})
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "42_1.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.PutObject(ctx, "42_1.jpg", "image/jpeg", strings.NewReader("x"))
	require.NoError(t, err)

	ok, err = store.Exists(ctx, "42_1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "43_1.jpg"), 0o750))
	ok, err = store.Exists(ctx, "43_1.jpg")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not objects")

	_, err = store.Exists(ctx, "")
	assert.Error(t, err)
}
