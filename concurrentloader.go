package studypal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spqr-86/studypal/rag"
)

// supported note file extensions, lowercase with dot.
var noteExtensions = map[string]struct{}{
	".pdf": {},
	".txt": {},
	".md":  {},
	".srt": {},
	".vtt": {},
}

// ConcurrentLoader extends Loader with parallel directory staging for large
// note collections.
type ConcurrentLoader interface {
	Loader

	// LoadDirConcurrent stages every supported file under dir using the
	// given number of workers. Files that fail to stage are skipped and
	// reported through the logger; the rest are returned.
	LoadDirConcurrent(ctx context.Context, dir string, workers int) ([]string, error)
}

type concurrentLoaderWrapper struct {
	internal *rag.Loader
}

// NewConcurrentLoader creates a ConcurrentLoader with the given options.
func NewConcurrentLoader(opts ...LoaderOption) ConcurrentLoader {
	return &concurrentLoaderWrapper{internal: rag.NewLoader(opts...)}
}

func (clw *concurrentLoaderWrapper) LoadDirConcurrent(ctx context.Context, dir string, workers int) ([]string, error) {
	files, err := listNoteFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing note files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported note files found in %s", dir)
	}
	if workers < 1 {
		workers = 4
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make(chan string, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				staged, err := clw.internal.LoadFile(ctx, path)
				if err != nil {
					rag.GlobalLogger.Warn("Skipping file", "path", path, "error", err)
					continue
				}
				results <- staged
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	var staged []string
	for path := range results {
		staged = append(staged, path)
	}
	if err := ctx.Err(); err != nil {
		return staged, err
	}
	return staged, nil
}

func (clw *concurrentLoaderWrapper) LoadURL(ctx context.Context, url string) (string, error) {
	return clw.internal.LoadURL(ctx, url)
}

func (clw *concurrentLoaderWrapper) LoadFile(ctx context.Context, path string) (string, error) {
	return clw.internal.LoadFile(ctx, path)
}

func (clw *concurrentLoaderWrapper) LoadDir(ctx context.Context, dir string) ([]string, error) {
	return clw.internal.LoadDir(ctx, dir)
}

func listNoteFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := noteExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
