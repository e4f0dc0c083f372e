package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ImageItem is one image offered by a source.
type ImageItem struct {
	SourceID  string // Unique ID within the source
	Filename  string // Sanitized name the image is recorded under in the history files
	LocalPath string
	Format    string // jpg, png, gif, webp
}

// Source enumerates images for batch captioning.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches a batch of items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of image items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []ImageItem, nextCursor string, err error)
}

var imageFormats = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

// FormatOf returns the image format of path from its extension, or "" for
// files that are not supported images.
func FormatOf(path string) string {
	return imageFormats[strings.ToLower(filepath.Ext(path))]
}

// Page slices items by an index cursor, the pagination scheme shared by the
// file-backed sources.
func Page(items []ImageItem, cursor string, limit int) ([]ImageItem, string, error) {
	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}

	if startIndex >= len(items) {
		return []ImageItem{}, "", nil
	}

	endIndex := startIndex + limit
	if limit <= 0 || endIndex > len(items) {
		endIndex = len(items)
	}

	nextCursor := ""
	if endIndex < len(items) {
		nextCursor = strconv.Itoa(endIndex)
	}
	return items[startIndex:endIndex], nextCursor, nil
}
