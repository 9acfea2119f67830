package quarantine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/quarantine"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func loser(path string) media.Candidate {
	return media.Candidate{Path: path, Rel: filepath.Base(path), Kind: media.KindImage}
}

func TestMovePlacesLoserInQuarantine(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "photo.jpg")
	writeFile(t, source, "pixels")

	sink := quarantine.NewSink(filepath.Join(root, "_duplicates"), logging.NewNop())
	target, err := sink.Move(context.Background(), loser(source))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if want := filepath.Join(root, "_duplicates", "photo.jpg"); target != want {
		t.Fatalf("unexpected target: got %q want %q", target, want)
	}
	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected source to be gone, stat err: %v", err)
	}
	contents, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(contents) != "pixels" {
		t.Fatalf("unexpected target contents: %q", contents)
	}
}

func TestMoveDisambiguatesCollisions(t *testing.T) {
	root := t.TempDir()
	sink := quarantine.NewSink(filepath.Join(root, "_duplicates"), logging.NewNop())

	first := filepath.Join(root, "a", "photo.jpg")
	second := filepath.Join(root, "b", "photo.jpg")
	third := filepath.Join(root, "c", "photo.jpg")
	writeFile(t, first, "one")
	writeFile(t, second, "two")
	writeFile(t, third, "three")

	ctx := context.Background()
	targetOne, err := sink.Move(ctx, loser(first))
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	targetTwo, err := sink.Move(ctx, loser(second))
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	targetThree, err := sink.Move(ctx, loser(third))
	if err != nil {
		t.Fatalf("third move: %v", err)
	}

	if got := filepath.Base(targetOne); got != "photo.jpg" {
		t.Fatalf("unexpected first target name: %q", got)
	}
	if got := filepath.Base(targetTwo); got != "photo-1.jpg" {
		t.Fatalf("unexpected second target name: %q", got)
	}
	if got := filepath.Base(targetThree); got != "photo-2.jpg" {
		t.Fatalf("unexpected third target name: %q", got)
	}

	for target, want := range map[string]string{
		targetOne:   "one",
		targetTwo:   "two",
		targetThree: "three",
	} {
		contents, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("read %s: %v", target, err)
		}
		if string(contents) != want {
			t.Fatalf("contents of %s: got %q want %q", target, contents, want)
		}
	}
}

func TestMoveKeepsExtensionAfterSuffix(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "_duplicates")
	sink := quarantine.NewSink(dir, logging.NewNop())
	writeFile(t, filepath.Join(dir, "clip.mp4"), "occupied")

	source := filepath.Join(root, "clip.mp4")
	writeFile(t, source, "payload")

	target, err := sink.Move(context.Background(), media.Candidate{Path: source, Rel: "clip.mp4", Kind: media.KindVideo})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if got := filepath.Base(target); got != "clip-1.mp4" {
		t.Fatalf("expected suffix before extension, got %q", got)
	}
}

func TestDryRunLeavesFilesInPlace(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "photo.jpg")
	writeFile(t, source, "pixels")

	dir := filepath.Join(root, "_duplicates")
	sink := quarantine.NewSink(dir, logging.NewNop(), quarantine.WithDryRun(true))
	if !sink.DryRun() {
		t.Fatal("expected dry-run sink")
	}

	target, err := sink.Move(context.Background(), loser(source))
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if want := filepath.Join(dir, "photo.jpg"); target != want {
		t.Fatalf("unexpected target: got %q want %q", target, want)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected source untouched: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected quarantine dir to stay absent, stat err: %v", err)
	}
}

func TestMoveMissingSourceFails(t *testing.T) {
	root := t.TempDir()
	sink := quarantine.NewSink(filepath.Join(root, "_duplicates"), logging.NewNop())

	_, err := sink.Move(context.Background(), loser(filepath.Join(root, "gone.jpg")))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, media.ErrIO) {
		t.Fatalf("expected IO classification, got %v", err)
	}
}
