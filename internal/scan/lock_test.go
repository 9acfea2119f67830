package scan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/testsupport"
)

func TestAcquireRootLockRejectsSecondHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()

	first, err := acquireRootLock(cfg, root)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if _, err := acquireRootLock(cfg, root); !errors.Is(err, media.ErrLocked) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
	first.release(logging.NewNop())

	second, err := acquireRootLock(cfg, root)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	second.release(logging.NewNop())
}

func TestLockPathDistinctAndStablePerRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	a := lockPath(cfg, "/media/one")
	b := lockPath(cfg, "/media/two")
	if a == b {
		t.Fatal("expected different lock files for different roots")
	}
	if a != lockPath(cfg, "/media/one") {
		t.Fatal("expected stable lock file per root")
	}
	if filepath.Dir(a) != cfg.LocksDir() {
		t.Fatalf("expected lock under %s, got %s", cfg.LocksDir(), a)
	}
}

func TestRunFailsFastWhenRootLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	store := testsupport.MustOpenLedger(t, cfg)
	scanner, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := t.TempDir()

	held, err := acquireRootLock(cfg, root)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer held.release(logging.NewNop())

	if _, err := scanner.Run(context.Background(), Options{Root: root}); !errors.Is(err, media.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
