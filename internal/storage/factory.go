package storage

import (
	"context"
	"strings"

	"github.com/Tephenbaay/imagescribeAI/internal/config"
)

// NewStorage builds the object storage for the static tree. Objects always
// land on the local disk; when the bucket mirror is enabled they are also
// replicated to it.
func NewStorage(ctx context.Context, paths *config.PathsConfig, cfg *config.StorageConfig) (ObjectStorage, error) {
	local, err := NewLocalStorage(paths.StaticDir, "/static")
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return local, nil
	}

	storeType := StorageType(cfg.Type)
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}
	remote, err := NewS3Storage(&S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := remote.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	return NewMirror(local, remote), nil
}

// detectStorageType guesses the storage flavour from the endpoint.
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
