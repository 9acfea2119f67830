package quarantine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"winnow/internal/fileutil"
	"winnow/internal/logging"
	"winnow/internal/media"
)

// Sink moves losing duplicates into a quarantine directory. The directory is
// created lazily on the first real move, so dry runs and duplicate-free scans
// leave the tree untouched.
type Sink struct {
	dir    string
	logger *slog.Logger
	dryRun bool
}

// Option customizes sink behavior.
type Option func(*Sink)

// WithDryRun makes Move report target paths without touching the filesystem.
func WithDryRun(enabled bool) Option {
	return func(s *Sink) {
		s.dryRun = enabled
	}
}

// NewSink returns a sink rooted at dir.
func NewSink(dir string, logger *slog.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	sink := &Sink{dir: dir, logger: logger}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Dir returns the quarantine directory path.
func (s *Sink) Dir() string {
	return s.dir
}

// DryRun reports whether the sink leaves the filesystem untouched.
func (s *Sink) DryRun() bool {
	return s.dryRun
}

// Move relocates the loser into the quarantine directory and returns the
// final target path. The original base name is kept when free; collisions
// receive a numeric suffix before the extension. In dry-run mode the target
// is computed against current directory contents but nothing is moved.
func (s *Sink) Move(ctx context.Context, loser media.Candidate) (string, error) {
	logger := logging.WithContext(ctx, s.logger)
	if !s.dryRun {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", media.Wrap(media.ErrIO, string(loser.Kind), "ensure quarantine dir", "failed to create quarantine directory", err)
		}
	}
	target, err := s.nextTargetPath(loser.Base())
	if err != nil {
		return "", media.Wrap(media.ErrIO, string(loser.Kind), "allocate quarantine name", "unable to allocate quarantine filename", err)
	}
	if s.dryRun {
		logger.Debug("would quarantine duplicate",
			logging.String("source", loser.Path),
			logging.String("target", target),
		)
		return target, nil
	}
	if err := moveOrCopyFile(logger, loser.Path, target); err != nil {
		return "", err
	}
	logger.Debug("quarantined duplicate",
		logging.String("source", loser.Path),
		logging.String("target", target),
	)
	return target, nil
}

// nextTargetPath finds a free name for base inside the quarantine directory.
func (s *Sink) nextTargetPath(base string) (string, error) {
	const maxAttempts = 10000
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "duplicate"
	}
	candidate := filepath.Join(s.dir, base)
	if free, err := pathFree(candidate); err != nil {
		return "", err
	} else if free {
		return candidate, nil
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s-%d%s", stem, attempt, ext))
		if free, err := pathFree(candidate); err != nil {
			return "", err
		} else if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted quarantine filename slots in %s", s.dir)
}

func pathFree(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// moveOrCopyFile renames a file, falling back to copy+delete for
// cross-device moves.
func moveOrCopyFile(logger *slog.Logger, source, target string) error {
	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if copyErr := fileutil.CopyFile(source, target); copyErr != nil {
			return media.Wrap(media.ErrIO, "", "copy duplicate", "failed to copy duplicate into quarantine", copyErr)
		}
		if err := os.Remove(source); err != nil {
			logger.Warn("failed to remove source after cross-device copy; both copies remain",
				logging.Error(err),
				logging.String("source", source),
			)
		}
		return nil
	}

	return media.Wrap(media.ErrIO, "", "move duplicate", "failed to move duplicate into quarantine", renameErr)
}
