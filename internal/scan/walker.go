package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"winnow/internal/logging"
	"winnow/internal/media"
)

// walker streams candidates of one kind from the tree below root in lexical
// order.
type walker struct {
	root       string
	kind       media.Kind
	classifier media.Classifier
	prune      string // quarantine directory base name, skipped wherever it appears
	excludes   []string
	logger     *slog.Logger

	failures atomic.Int64
}

// run visits the tree and sends matching candidates to out. Unreadable
// entries below the root are logged and counted, never fatal; a root that
// cannot be read aborts the walk.
func (w *walker) run(ctx context.Context, out chan<- task) error {
	var seq uint64
	println("DEBUG walker.run start root=", w.root, "kind=", string(w.kind))
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		println("DEBUG visit", path, "err:", err != nil)
		if err != nil {
			if path == w.root {
				return media.Wrap(media.ErrIO, string(w.kind), "walk", "failed to read scan root", err)
			}
			w.failures.Add(1)
			w.logger.Warn("unreadable entry skipped",
				logging.Error(err),
				logging.String(logging.FieldPath, path),
			)
			return nil
		}
		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if d.Name() == w.prune || w.excluded(path) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if w.excluded(path) {
			return nil
		}
		kind, ok := w.classifier.Kind(path)
		println("DEBUG classify", path, "kind=", string(kind), "ok=", ok, "want=", string(w.kind))
		if !ok || kind != w.kind {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			w.failures.Add(1)
			w.logger.Warn("stat failed; file skipped",
				logging.Error(err),
				logging.String(logging.FieldPath, path),
			)
			return nil
		}
		candidate, err := media.NewCandidate(w.root, path, kind, info.Size())
		if err != nil {
			w.failures.Add(1)
			w.logger.Warn("file skipped",
				logging.Error(err),
				logging.String(logging.FieldPath, path),
			)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- task{seq: seq, candidate: candidate}:
			seq++
		}
		return nil
	})
}

// excluded reports whether the root-relative path matches any exclude
// pattern.
func (w *walker) excluded(path string) bool {
	if len(w.excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
