// Package blob abstracts document file storage behind a small interface so
// the document service never touches the filesystem directly.
package blob

import (
	"context"
	"io"
)

// Store persists raw document bytes under opaque keys.
type Store interface {
	// Put writes the blob; an existing key is overwritten.
	Put(ctx context.Context, key string, r io.Reader) error
	// Get opens the blob for reading. Returns sentinel.ErrNotFound for
	// unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting an unknown key is a no-op.
	Delete(ctx context.Context, key string) error
}
