package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/civisearch/govseek/internal/config"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists under the
// given name. Callers treat it as "start empty", not as a failure.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshotter persists named snapshot documents. Each Save is a complete
// overwrite of the previous document; there is no incremental log format.
type Snapshotter interface {
	// Save writes data under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the last saved snapshot for name, or ErrSnapshotNotFound.
	Load(ctx context.Context, name string) ([]byte, error)

	// Close releases any resources held by the backend
	Close() error
}

// New creates a snapshot backend from configuration
func New(cfg *config.Config) (Snapshotter, error) {
	switch cfg.StorageType {
	case "s3":
		return NewS3Snapshotter(&S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			UseSSL:          cfg.S3UseSSL,
		})
	case "local", "":
		return NewLocalSnapshotter(cfg.SnapshotDir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
