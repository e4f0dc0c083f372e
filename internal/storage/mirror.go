package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Tephenbaay/imagescribeAI/internal/logger"
)

// Mirror writes every object to a primary store and replicates it to a
// secondary one. URLs come from the primary. Replica failures are logged and
// never surface to the caller.
type Mirror struct {
	primary ObjectStorage
	replica ObjectStorage
}

// NewMirror creates a mirrored storage.
func NewMirror(primary, replica ObjectStorage) *Mirror {
	return &Mirror{primary: primary, replica: replica}
}

// Upload buffers the object so both stores receive the full body.
func (m *Mirror) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to buffer %s: %w", key, err)
	}
	if err := m.primary.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return err
	}
	if err := m.replica.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("key", key).Warn("Failed to replicate object")
	}
	return nil
}

func (m *Mirror) GetURL(key string) string {
	return m.primary.GetURL(key)
}
