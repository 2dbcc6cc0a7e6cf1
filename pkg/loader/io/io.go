package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/OFFIS-RIT/graphtune/pkg/loader"
	"github.com/OFFIS-RIT/graphtune/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// IOFileLoader loads files directly from the local filesystem. Concurrent
// reads of the same path share one read; nothing is retained afterwards.
type IOFileLoader struct {
	group singleflight.Group
}

// NewIOFileLoader creates a new filesystem-based file loader.
func NewIOFileLoader() *IOFileLoader {
	return &IOFileLoader{}
}

// ReadFile reads the file content from the filesystem.
func (l *IOFileLoader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err, shared := l.group.Do(path, func() (any, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", loader.ErrNotFound, path)
			}
			return nil, err
		}
		return content, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("[Loader] Read local file", "path", path, "shared", shared)

	// Shared results hand out the same slice; copy so callers can mutate theirs.
	content := result.([]byte)
	if shared {
		content = append([]byte(nil), content...)
	}
	return content, nil
}
