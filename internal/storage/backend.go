package storage

import (
	"context"
	"fmt"

	"github.com/roomly/apiserver/config"
)

// NewBackend builds the ObjectStorage selected by cfg.Storage.Backend.
func NewBackend(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMinio, "":
		return NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		return NewGCSClient(ctx, cfg.GCS)
	case config.StorageBackendS3:
		return NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
