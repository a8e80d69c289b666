package studypal

import (
	"context"
	"net/http"
	"time"

	"github.com/spqr-86/studypal/rag"
)

// Loader stages study notes for ingestion. It provides a unified API for
// handling:
//   - URLs: download and process remote documents
//   - Files: load and process local files
//   - Directories: recursively process directory contents
//
// The interface is thread-safe and supports concurrent operations with
// configurable timeouts.
type Loader interface {
	// LoadURL downloads a document from the given URL into the staging
	// directory and returns its local path.
	LoadURL(ctx context.Context, url string) (string, error)

	// LoadFile stages a local file and returns the staged path.
	LoadFile(ctx context.Context, path string) (string, error)

	// LoadDir recursively stages all files in a directory. Returns paths
	// to all staged files.
	LoadDir(ctx context.Context, dir string) ([]string, error)
}

// loaderWrapper encapsulates the internal loader implementation.
type loaderWrapper struct {
	internal *rag.Loader
}

// LoaderOption configures a Loader.
type LoaderOption = rag.LoaderOption

// WithHTTPClient sets a custom HTTP client for downloads.
func WithHTTPClient(client *http.Client) LoaderOption {
	return rag.WithHTTPClient(client)
}

// WithLoaderTimeout sets a custom timeout for all loader operations.
func WithLoaderTimeout(timeout time.Duration) LoaderOption {
	return rag.WithTimeout(timeout)
}

// SetTempDir sets the staging directory for loaded files.
func SetTempDir(dir string) LoaderOption {
	return rag.WithTempDir(dir)
}

// NewLoader creates a Loader. Defaults: standard HTTP client, 30-second
// timeout, system temporary directory.
func NewLoader(opts ...LoaderOption) Loader {
	return &loaderWrapper{internal: rag.NewLoader(opts...)}
}

func (lw *loaderWrapper) LoadURL(ctx context.Context, url string) (string, error) {
	return lw.internal.LoadURL(ctx, url)
}

func (lw *loaderWrapper) LoadFile(ctx context.Context, path string) (string, error) {
	return lw.internal.LoadFile(ctx, path)
}

func (lw *loaderWrapper) LoadDir(ctx context.Context, dir string) ([]string, error) {
	return lw.internal.LoadDir(ctx, dir)
}
