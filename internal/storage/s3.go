package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phuslu/log"
)

// S3Config holds S3 snapshot storage configuration
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Prefix          string
	UseSSL          bool
}

// S3Snapshotter stores snapshots in an S3-compatible bucket
type S3Snapshotter struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Snapshotter creates an S3 snapshot backend
func NewS3Snapshotter(cfg *S3Config) (*S3Snapshotter, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	log.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Bool("ssl", cfg.UseSSL).
		Msg("Creating S3 snapshot backend")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Snapshotter{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3Snapshotter) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save uploads the snapshot, replacing any previous object at the same key
func (s *S3Snapshotter) Save(ctx context.Context, name string, data []byte) error {
	key := s.objectKey(name)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	log.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Snapshot uploaded")

	return nil
}

// Load downloads the last saved snapshot
func (s *S3Snapshotter) Load(ctx context.Context, name string) ([]byte, error) {
	key := s.objectKey(name)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	return data, nil
}

// Close is a no-op; the minio client holds no persistent connections
func (s *S3Snapshotter) Close() error {
	return nil
}
