// Package library turns user-selected files and directories into an
// ordered list of media references.
package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jscyril/golang_media_player/api"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Scanner expands paths concurrently using a worker pool
type Scanner struct {
	workers    int
	formats    []string
	metaReader *MetadataReader
	logger     *zap.Logger
}

type job struct {
	index int
	path  string
}

// NewScanner creates a scanner accepting files with the given extensions
// inside directories
func NewScanner(workers int, formats []string, logger *zap.Logger) *Scanner {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Scanner{
		workers: workers,
		formats: lo.Map(formats, func(f string, _ int) string {
			return strings.ToLower(f)
		}),
		metaReader: NewMetadataReader(),
		logger:     logger,
	}
}

// SupportedFormats returns the extensions picked up from directories
func (s *Scanner) SupportedFormats() []string {
	return s.formats
}

// isSupported checks if a file format is supported
func (s *Scanner) isSupported(filePath string) bool {
	return lo.Contains(s.formats, strings.ToLower(filepath.Ext(filePath)))
}

// Expand resolves paths into media references. Explicit files keep their
// position and are accepted whatever their extension; directories expand in
// place to their supported files in lexical order. Paths that cannot be read
// are skipped and reported as ScanErrors joined into the returned error.
func (s *Scanner) Expand(ctx context.Context, paths []string) ([]api.MediaReference, error) {
	files, errs := s.discover(ctx, paths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refs := make([]api.MediaReference, len(files))
	jobs := make(chan job)

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
	)

	// Start worker pool
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				ref := api.NewMediaReference(j.path)
				if !isRemote(j.path) {
					name, err := s.metaReader.DisplayName(j.path)
					if err != nil {
						errMu.Lock()
						errs = append(errs, &playerrors.ScanError{Path: j.path, Err: err})
						errMu.Unlock()
					} else {
						ref = ref.WithName(name)
					}
				}
				refs[j.index] = ref
			}
		}()
	}

feed:
	for i, path := range files {
		select {
		case jobs <- job{index: i, path: path}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("Expanded paths",
		zap.Int("paths", len(paths)),
		zap.Int("entries", len(refs)),
		zap.Int("errors", len(errs)))

	return refs, errors.Join(errs...)
}

// discover walks paths in order and returns the files they name
func (s *Scanner) discover(ctx context.Context, paths []string) ([]string, []error) {
	var (
		files []string
		errs  []error
	)

	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, nil
		}

		if isRemote(path) {
			files = append(files, path)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			errs = append(errs, &playerrors.ScanError{Path: path, Err: playerrors.Normalize(err)})
			continue
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, &playerrors.ScanError{Path: p, Err: playerrors.Normalize(err)})
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !d.IsDir() && s.isSupported(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, &playerrors.ScanError{Path: path, Err: err})
		}
	}
	return files, errs
}

func isRemote(locator string) bool {
	return strings.Contains(locator, "://")
}
