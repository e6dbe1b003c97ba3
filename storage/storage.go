package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download for a path with no object.
var ErrNotFound = errors.New("storage: object not found")

// Storage holds finished subtitle files keyed by relative path.
type Storage interface {
	// Upload replaces whatever is stored at path.
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download opens the object at path. The caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is a no-op for a missing path.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
