package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IshaanNene/fetchkit/internal/types"
)

// FileFetcher implements Fetcher for local filesystem paths.
type FileFetcher struct {
	logger *slog.Logger
}

// NewFileFetcher creates a new local file fetcher.
func NewFileFetcher(logger *slog.Logger) *FileFetcher {
	return &FileFetcher{logger: logger.With("component", "file_fetcher")}
}

// Open opens the file at the locator's path.
func (f *FileFetcher) Open(ctx context.Context, loc *types.Locator) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Unavailable(loc.Raw, err)
	}

	path := loc.Path()
	file, err := os.Open(path)
	if err != nil {
		return nil, types.Unavailable(loc.Raw, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, types.Unavailable(loc.Raw, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, types.Unavailable(loc.Raw, fmt.Errorf("%s is a directory", path))
	}

	f.logger.Debug("stream opened", "path", path, "size", info.Size())
	return file, nil
}

// Close is a no-op.
func (f *FileFetcher) Close() error {
	return nil
}

// Type returns the fetcher type identifier.
func (f *FileFetcher) Type() string {
	return "file"
}
