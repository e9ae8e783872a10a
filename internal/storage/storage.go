// Package storage persists generated artifacts: raster images and rewritten
// Markdown. Two backends exist, the local filesystem and an S3-compatible
// object store.
package storage

import (
	"context"
	"errors"
)

// Sentinel errors for storage operations.
var (
	ErrEmptyPath    = errors.New("storage path cannot be empty")
	ErrWriteFailed  = errors.New("storage write failed")
	ErrOutsideRoot  = errors.New("path is outside the storage root")
	ErrMissingS3Cfg = errors.New("s3 storage requires endpoint, bucket and credentials")
)

// Store is the persistent-storage collaborator. Paths are local filesystem
// paths; backends that are not filesystems map them to their own keys.
// Each call returns only after the write has completed.
type Store interface {
	WriteBytes(ctx context.Context, path string, data []byte) error
	WriteText(ctx context.Context, path, text string) error
	EnsureDir(ctx context.Context, path string) error
}
