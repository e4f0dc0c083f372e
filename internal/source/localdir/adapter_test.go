package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBatchWalksSortedImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "sub/c.webp", "notes.txt"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}

	a := NewAdapter(dir)
	ctx := context.Background()

	batch, next, err := a.FetchBatch(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a.jpg", batch[0].SourceID)
	assert.Equal(t, "b.png", batch[1].SourceID)
	assert.Equal(t, "2", next)

	batch, next, err = a.FetchBatch(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "sub/c.webp", batch[0].SourceID)
	assert.Equal(t, "c.webp", batch[0].Filename)
	assert.Equal(t, "webp", batch[0].Format)
	assert.Empty(t, next)
}

func TestFetchBatchMissingDir(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "absent"))
	_, _, err := a.FetchBatch(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestFetchBatchSanitizesFilenames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cats | dogs.png"), []byte("x"), 0o600))

	batch, _, err := NewAdapter(dir).FetchBatch(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "cats | dogs.png", batch[0].SourceID)
	assert.Equal(t, "cats__dogs.png", batch[0].Filename)
}
