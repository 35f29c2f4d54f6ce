package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSnapshotter stores snapshots as files on the local filesystem
type LocalSnapshotter struct {
	baseDir string
}

// NewLocalSnapshotter creates a local filesystem snapshot backend
func NewLocalSnapshotter(baseDir string) (*LocalSnapshotter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalSnapshotter{
		baseDir: baseDir,
	}, nil
}

func (l *LocalSnapshotter) buildPath(name string) string {
	return filepath.Join(l.baseDir, name)
}

// Save writes the snapshot to a temporary file and renames it into place so a
// crash mid-write never leaves a torn snapshot behind.
func (l *LocalSnapshotter) Save(ctx context.Context, name string, data []byte) error {
	path := l.buildPath(name)

	tmpFile, err := os.CreateTemp(l.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}

	return nil
}

// Load reads the last saved snapshot from disk
func (l *LocalSnapshotter) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(l.buildPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Close is a no-op for local storage
func (l *LocalSnapshotter) Close() error {
	return nil
}
