package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	items := []ImageItem{{SourceID: "a"}, {SourceID: "b"}, {SourceID: "c"}}

	batch, next, err := Page(items, "", 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, "2", next)

	batch, next, err = Page(items, next, 2)
	require.NoError(t, err)
	assert.Equal(t, []ImageItem{{SourceID: "c"}}, batch)
	assert.Empty(t, next)

	batch, next, err = Page(items, "5", 2)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Empty(t, next)

	_, _, err = Page(items, "x", 2)
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "jpg", FormatOf("a/B.JPEG"))
	assert.Equal(t, "webp", FormatOf("c.webp"))
	assert.Empty(t, FormatOf("notes.txt"))
}
