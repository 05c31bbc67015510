// Package file provides a filesystem implementation of driven.BlobStore.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore keeps each blob in its own file under a root directory.
// Writes go to a temporary file in the same directory which is synced and
// renamed over the target, so readers never observe a partial blob.
type BlobStore struct {
	root string
}

// NewBlobStore creates a blob store rooted at dir, creating it if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: blob store directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &BlobStore{root: dir}, nil
}

// Dir returns the root directory.
func (s *BlobStore) Dir() string {
	return s.root
}

// Write atomically replaces the blob at location.
func (s *BlobStore) Write(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(location)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, "."+location+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", location, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("chmod %s: %w", location, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish %s: %w", location, err)
	}
	committed = true

	syncDir(s.root)
	return nil
}

// Read returns the blob at location.
func (s *BlobStore) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(location)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// Delete removes the blob at location.
func (s *BlobStore) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(location)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", location, err)
	}
	return nil
}

// path maps a location to a file directly under root. Locations are flat
// names; separators and dot segments are rejected.
func (s *BlobStore) path(location string) (string, error) {
	if location == "" || location == "." || location == ".." ||
		strings.ContainsAny(location, `/\`) || strings.HasPrefix(location, ".") {
		return "", fmt.Errorf("%w: invalid blob location %q", domain.ErrInvalidInput, location)
	}
	return filepath.Join(s.root, location), nil
}

// syncDir flushes the directory entry after a rename. Some platforms do not
// support syncing directories, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
