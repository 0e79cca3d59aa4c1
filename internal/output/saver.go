package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/textutil"
)

// Saver hands converted bytes to their destination.
type Saver interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
}

// DirSaver writes outputs into a directory.
type DirSaver struct {
	dir       string
	overwrite bool
	logger    *slog.Logger

	mu sync.Mutex
}

// NewDirSaver returns a saver rooted at dir. When overwrite is false an
// existing file is kept and the new output gets a " (N)" suffix.
func NewDirSaver(dir string, overwrite bool, logger *slog.Logger) *DirSaver {
	return &DirSaver{
		dir:       dir,
		overwrite: overwrite,
		logger:    logging.NewComponentLogger(logger, "output"),
	}
}

// NewFromConfig builds a DirSaver for paths.output_dir.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *DirSaver {
	return NewDirSaver(cfg.Paths.OutputDir, cfg.Conversion.Overwrite, logger)
}

// Dir returns the destination directory.
func (s *DirSaver) Dir() string { return s.dir }

// Save writes data under a sanitised form of filename and returns the final path.
func (s *DirSaver) Save(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := textutil.SanitizeFileName(filename)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "output", "save", fmt.Sprintf("unusable file name %q", filename), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "output", "save", "create output dir", err)
	}

	target := filepath.Join(s.dir, name)
	if !s.overwrite {
		unique, err := fileutil.UniquePath(s.dir, name)
		if err != nil {
			return "", services.Wrap(services.ErrTransient, "output", "save", "pick file name", err)
		}
		target = unique
	}

	if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "output", "save", "write "+filepath.Base(target), err)
	}
	logging.WithContext(ctx, s.logger).Info("output saved",
		logging.String("path", target),
		logging.Int("bytes", len(data)),
		logging.String(logging.FieldEventType, "output_saved"),
	)
	return target, nil
}

var _ Saver = (*DirSaver)(nil)
