// Package loader abstracts where input files come from. Edge lists and
// datasets can live on the local disk or in an S3 compatible bucket; callers
// only see the FileLoader interface.
package loader

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) by loaders when the requested file does
// not exist at the source.
var ErrNotFound = errors.New("file not found")

// FileLoader reads the full contents of a file identified by path.
// Implementations may load files from disk, cloud storage, or other sources.
type FileLoader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileLoaderFunc adapts a plain function to the FileLoader interface.
type FileLoaderFunc func(ctx context.Context, path string) ([]byte, error)

// ReadFile calls f(ctx, path).
func (f FileLoaderFunc) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}
