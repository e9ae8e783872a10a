package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Permissions for created files and directories.
const (
	DirPerm  = 0o750
	FilePerm = 0o644
)

// FSStore writes to the local filesystem.
type FSStore struct{}

// NewFSStore returns a filesystem store.
func NewFSStore() *FSStore {
	return &FSStore{}
}

// WriteBytes writes data to path through a temp file in the same directory,
// so readers never observe a partially written image.
func (s *FSStore) WriteBytes(ctx context.Context, path string, data []byte) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mdpress-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: writing %s: %v", ErrWriteFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: closing %s: %v", ErrWriteFailed, path, err)
	}
	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: renaming to %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

// WriteText writes text to path.
func (s *FSStore) WriteText(ctx context.Context, path, text string) error {
	return s.WriteBytes(ctx, path, []byte(text))
}

// EnsureDir creates path and any missing parents.
func (s *FSStore) EnsureDir(ctx context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(path, DirPerm); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

var _ Store = (*FSStore)(nil)
