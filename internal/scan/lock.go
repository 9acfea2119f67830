package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"winnow/internal/config"
	"winnow/internal/logging"
	"winnow/internal/media"
)

// rootLock serializes scans per inspection root. The lock file name is
// derived from the root path, so scans of different trees never contend.
type rootLock struct {
	flk *flock.Flock
}

func lockPath(cfg *config.Config, root string) string {
	sum := sha256.Sum256([]byte(root))
	return filepath.Join(cfg.LocksDir(), hex.EncodeToString(sum[:8])+".lock")
}

// acquireRootLock takes the per-root lock without blocking. A held lock
// means another scan of the same tree is in flight.
func acquireRootLock(cfg *config.Config, root string) (*rootLock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, media.Wrap(media.ErrConfiguration, "", "prepare state dir", "failed to create state directories", err)
	}
	flk := flock.New(lockPath(cfg, root))
	locked, err := flk.TryLock()
	if err != nil {
		return nil, media.Wrap(media.ErrIO, "", "acquire scan lock", fmt.Sprintf("failed to lock %s", flk.Path()), err)
	}
	if !locked {
		return nil, media.Wrap(media.ErrLocked, "", "acquire scan lock", fmt.Sprintf("%s is held by another scan", flk.Path()), nil)
	}
	return &rootLock{flk: flk}, nil
}

func (l *rootLock) release(logger *slog.Logger) {
	if l == nil || l.flk == nil {
		return
	}
	if err := l.flk.Unlock(); err != nil && logger != nil {
		logger.Warn("failed to release scan lock",
			logging.Error(err),
			logging.String("lock", l.flk.Path()),
		)
	}
}
