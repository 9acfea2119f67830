package scan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"winnow/internal/config"
	"winnow/internal/ledger"
	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/scan"
	"winnow/internal/testsupport"
)

func newScanner(t *testing.T, cfg *config.Config) (*scan.Scanner, *ledger.Store) {
	t.Helper()
	store := testsupport.MustOpenLedger(t, cfg)
	scanner, err := scan.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("scan.New: %v", err)
	}
	return scanner, store
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		return true
	} else if os.IsNotExist(err) {
		return false
	} else {
		t.Fatalf("stat %s: %v", path, err)
		return false
	}
}

func pipelineByName(t *testing.T, summary *scan.Summary, name string) scan.PipelineSummary {
	t.Helper()
	for _, p := range summary.Pipelines {
		if p.Pipeline == name {
			return p
		}
	}
	t.Fatalf("pipeline %q missing from summary", name)
	return scan.PipelineSummary{}
}

func TestRunQuarantinesShallowerImageCopy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, store := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "albums", "photo.png"), img)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Scanned != 2 || summary.Duplicates != 1 || summary.Errors != 0 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	if exists(t, filepath.Join(root, "photo.png")) {
		t.Fatal("expected shallow copy to be quarantined")
	}
	if !exists(t, filepath.Join(root, "albums", "photo.png")) {
		t.Fatal("expected deep copy to survive")
	}
	if !exists(t, filepath.Join(root, "_duplicates", "photo.png")) {
		t.Fatal("expected quarantined file under _duplicates")
	}

	run, err := store.RunByID(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if run == nil || !run.Finished() {
		t.Fatalf("expected finished run row, got %+v", run)
	}
	if run.Scanned != 2 || run.Duplicates != 1 || run.Errors != 0 {
		t.Fatalf("unexpected run counters: %+v", run)
	}

	decisions, err := store.DecisionsForRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("DecisionsForRun: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	d := decisions[0]
	if d.MovedPath != filepath.Join(root, "photo.png") {
		t.Fatalf("unexpected moved path: %s", d.MovedPath)
	}
	if d.KeptPath != filepath.Join(root, "albums", "photo.png") {
		t.Fatalf("unexpected kept path: %s", d.KeptPath)
	}
	if d.MovedTo != filepath.Join(root, "_duplicates", "photo.png") {
		t.Fatalf("unexpected moved_to: %s", d.MovedTo)
	}
	if d.Pipeline != "image" {
		t.Fatalf("unexpected pipeline: %s", d.Pipeline)
	}
}

func TestRunPromotesDeeperCopySeenLater(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, store := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "a.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "z", "deep", "a.png"), img)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", summary.Duplicates)
	}
	if exists(t, filepath.Join(root, "a.png")) {
		t.Fatal("expected first-seen shallow copy to be replaced and quarantined")
	}
	if !exists(t, filepath.Join(root, "z", "deep", "a.png")) {
		t.Fatal("expected deeper copy to survive")
	}

	decisions, err := store.DecisionsForRun(context.Background(), summary.RunID)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("DecisionsForRun: %v (%d rows)", err, len(decisions))
	}
	if decisions[0].MovedPath != filepath.Join(root, "a.png") {
		t.Fatalf("unexpected moved path: %s", decisions[0].MovedPath)
	}
	if decisions[0].Reason != "duplicate of deeper copy" {
		t.Fatalf("unexpected reason: %s", decisions[0].Reason)
	}
}

func TestRunKeepsFirstSeenAtEqualDepth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, store := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "a", "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "b", "photo.png"), img)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", summary.Duplicates)
	}
	if !exists(t, filepath.Join(root, "a", "photo.png")) {
		t.Fatal("expected first-seen copy to survive")
	}
	if exists(t, filepath.Join(root, "b", "photo.png")) {
		t.Fatal("expected later copy at equal depth to be quarantined")
	}

	decisions, err := store.DecisionsForRun(context.Background(), summary.RunID)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("DecisionsForRun: %v (%d rows)", err, len(decisions))
	}
	if decisions[0].Reason != "duplicate at equal depth, first-seen copy kept" {
		t.Fatalf("unexpected reason: %s", decisions[0].Reason)
	}
}

func TestRunDisambiguatesQuarantineNameCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	vertical := testsupport.VerticalSplitImage(64, 64)
	horizontal := testsupport.HorizontalSplitImage(64, 64)
	// Two distinct duplicate groups whose losers share the base name p.png.
	testsupport.WritePNG(t, filepath.Join(root, "a", "p.png"), vertical)
	testsupport.WritePNG(t, filepath.Join(root, "p.png"), vertical)
	testsupport.WritePNG(t, filepath.Join(root, "b", "p.png"), horizontal)
	testsupport.WritePNG(t, filepath.Join(root, "m", "p.png"), horizontal)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Duplicates != 2 {
		t.Fatalf("expected 2 duplicates, got %d", summary.Duplicates)
	}
	if !exists(t, filepath.Join(root, "a", "p.png")) || !exists(t, filepath.Join(root, "b", "p.png")) {
		t.Fatal("expected both group survivors to remain")
	}
	if !exists(t, filepath.Join(root, "_duplicates", "p.png")) {
		t.Fatal("expected first loser under its plain base name")
	}
	if !exists(t, filepath.Join(root, "_duplicates", "p-1.png")) {
		t.Fatal("expected second loser under a suffixed name")
	}
}

func TestRunSkipsQuarantineDirectoryOnRerun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "deep", "photo.png"), img)

	first, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if first.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate on first run, got %d", first.Duplicates)
	}

	second, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if second.Duplicates != 0 {
		t.Fatalf("expected rerun to quarantine nothing, got %d", second.Duplicates)
	}
	if second.Scanned != 1 {
		t.Fatalf("expected rerun to see only the survivor, got %d", second.Scanned)
	}

	entries, err := os.ReadDir(filepath.Join(root, "_duplicates"))
	if err != nil {
		t.Fatalf("read quarantine dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one quarantined file, got %d", len(entries))
	}
}

func TestRunHonorsExcludePatterns(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithCompareSize(16),
		testsupport.WithExcludes("skip/**", "cache"),
	)
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "keep", "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "skip", "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "cache", "photo.png"), img)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Scanned != 1 {
		t.Fatalf("expected 1 scanned file, got %d", summary.Scanned)
	}
	if summary.Duplicates != 0 {
		t.Fatalf("expected no duplicates across excluded paths, got %d", summary.Duplicates)
	}
	for _, rel := range []string{"keep/photo.png", "skip/photo.png", "cache/photo.png"} {
		if !exists(t, filepath.Join(root, filepath.FromSlash(rel))) {
			t.Fatalf("expected %s to stay in place", rel)
		}
	}
}

func TestRunDryRunRecordsWithoutMoving(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, store := newScanner(t, cfg)
	root := t.TempDir()

	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "deep", "photo.png"), img)

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root, DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.DryRun || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !exists(t, filepath.Join(root, "photo.png")) || !exists(t, filepath.Join(root, "deep", "photo.png")) {
		t.Fatal("expected dry run to leave both copies in place")
	}
	if exists(t, filepath.Join(root, "_duplicates")) {
		t.Fatal("expected no quarantine directory after dry run")
	}

	run, err := store.RunByID(context.Background(), summary.RunID)
	if err != nil || run == nil {
		t.Fatalf("RunByID: %v", err)
	}
	if !run.DryRun {
		t.Fatal("expected run row flagged as dry run")
	}
	decisions, err := store.DecisionsForRun(context.Background(), summary.RunID)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("DecisionsForRun: %v (%d rows)", err, len(decisions))
	}
	if decisions[0].MovedTo != filepath.Join(root, "_duplicates", "photo.png") {
		t.Fatalf("unexpected would-be target: %s", decisions[0].MovedTo)
	}
}

func TestRunCountsUndecodableFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	testsupport.WritePNG(t, filepath.Join(root, "ok.png"), testsupport.VerticalSplitImage(64, 64))

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Scanned != 2 || summary.Errors != 1 || summary.Duplicates != 0 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	if !exists(t, filepath.Join(root, "broken.png")) {
		t.Fatal("expected undecodable file to stay in place")
	}
}

func TestRunQuarantinesByteIdenticalVideos(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, store := newScanner(t, cfg)
	root := t.TempDir()

	testsupport.WriteFile(t, filepath.Join(root, "clip.mp4"), 3, 50_000)
	testsupport.WriteFile(t, filepath.Join(root, "deep", "clip.mp4"), 3, 50_000)
	testsupport.WriteFile(t, filepath.Join(root, "other.mp4"), 4, 50_000)
	testsupport.WritePNG(t, filepath.Join(root, "photo.png"), testsupport.VerticalSplitImage(64, 64))

	summary, err := scanner.Run(context.Background(), scan.Options{Root: root})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Scanned != 4 || summary.Duplicates != 1 || summary.Errors != 0 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	videos := pipelineByName(t, summary, "video")
	if videos.Scanned != 3 || videos.Duplicates != 1 {
		t.Fatalf("unexpected video pipeline counters: %+v", videos)
	}
	images := pipelineByName(t, summary, "image")
	if images.Scanned != 1 || images.Duplicates != 0 {
		t.Fatalf("unexpected image pipeline counters: %+v", images)
	}

	if exists(t, filepath.Join(root, "clip.mp4")) {
		t.Fatal("expected shallow video copy to be quarantined")
	}
	if !exists(t, filepath.Join(root, "deep", "clip.mp4")) || !exists(t, filepath.Join(root, "other.mp4")) {
		t.Fatal("expected surviving videos to stay in place")
	}

	decisions, err := store.DecisionsForRun(context.Background(), summary.RunID)
	if err != nil || len(decisions) != 1 {
		t.Fatalf("DecisionsForRun: %v (%d rows)", err, len(decisions))
	}
	if decisions[0].Pipeline != "video" {
		t.Fatalf("unexpected pipeline: %s", decisions[0].Pipeline)
	}
}

func TestRunInvokesProgressCallback(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	testsupport.WritePNG(t, filepath.Join(root, "one.png"), testsupport.VerticalSplitImage(32, 32))
	testsupport.WritePNG(t, filepath.Join(root, "two.png"), testsupport.HorizontalSplitImage(32, 32))
	testsupport.WriteFile(t, filepath.Join(root, "clip.mp4"), 5, 1024)

	var seen []string
	summary, err := scanner.Run(context.Background(), scan.Options{
		Root: root,
		OnFile: func(c media.Candidate) {
			seen = append(seen, c.Rel)
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if int64(len(seen)) != summary.Scanned {
		t.Fatalf("expected %d callbacks, got %d", summary.Scanned, len(seen))
	}
}

func TestRunRejectsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scanner, _ := newScanner(t, cfg)

	_, err := scanner.Run(context.Background(), scan.Options{Root: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, media.ErrIO) {
		t.Fatalf("expected IO error for missing root, got %v", err)
	}
}

func TestRunRejectsNonDirectoryRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scanner, _ := newScanner(t, cfg)

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := scanner.Run(context.Background(), scan.Options{Root: file})
	if !errors.Is(err, media.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scanner, _ := newScanner(t, cfg)
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanner.Run(ctx, scan.Options{Root: root}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
