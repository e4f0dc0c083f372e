package storage

import (
	"context"
	"io"
)

// ObjectStorage stores uploaded images and generated audio under slash
// separated keys such as "uploads/dog.jpg" or "audio/dog.jpg_caption.mp3".
type ObjectStorage interface {
	// Upload writes an object, replacing any existing object with the same key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL the browser uses to fetch an object
	GetURL(key string) string
}
