package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores and retrieves named, immutable blobs.
type BlobStore interface {
	// Put writes a blob, replacing any previous content under the name.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open opens a blob for reading. The caller owns the returned reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
