package media

import (
	"path/filepath"
	"strings"
)

// Kind partitions scannable files into fingerprint pipelines.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}

var defaultVideoExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".wmv"}

// DefaultImageExtensions returns the image extensions recognized when the
// configuration does not override them.
func DefaultImageExtensions() []string {
	cp := make([]string, len(defaultImageExtensions))
	copy(cp, defaultImageExtensions)
	return cp
}

// DefaultVideoExtensions returns the video extensions recognized when the
// configuration does not override them.
func DefaultVideoExtensions() []string {
	cp := make([]string, len(defaultVideoExtensions))
	copy(cp, defaultVideoExtensions)
	return cp
}

// Classifier maps file extensions to media kinds. Matching is
// case-insensitive; unknown extensions are not classified at all.
type Classifier struct {
	images map[string]struct{}
	videos map[string]struct{}
}

// NewClassifier builds a classifier from extension lists. Entries are
// lowercased and gain a leading dot when missing; empty entries are dropped.
func NewClassifier(imageExts, videoExts []string) Classifier {
	return Classifier{
		images: extensionSet(imageExts),
		videos: extensionSet(videoExts),
	}
}

// DefaultClassifier returns a classifier over the default extension lists.
func DefaultClassifier() Classifier {
	return NewClassifier(defaultImageExtensions, defaultVideoExtensions)
}

// Kind classifies a path by its extension.
func (c Classifier) Kind(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	if _, ok := c.images[ext]; ok {
		return KindImage, true
	}
	if _, ok := c.videos[ext]; ok {
		return KindVideo, true
	}
	return "", false
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		normalized := NormalizeExtension(ext)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

// NormalizeExtension lowercases an extension and ensures a leading dot.
// Empty or dot-only input normalizes to the empty string.
func NormalizeExtension(ext string) string {
	normalized := strings.ToLower(strings.TrimSpace(ext))
	if normalized == "" || normalized == "." {
		return ""
	}
	if !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	return normalized
}

// Candidate describes one file observed during a scan.
type Candidate struct {
	Path  string // absolute path
	Rel   string // slash-separated path relative to the scan root
	Kind  Kind
	Depth int
	Size  int64
}

// NewCandidate builds a candidate for a file below root. Depth is derived
// from the root-relative path, so it does not change with how the scan root
// was spelled on the command line.
func NewCandidate(root, path string, kind Kind, size int64) (Candidate, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Candidate{}, Wrap(ErrInvalidArgument, "", "relativize", path, err)
	}
	rel = filepath.ToSlash(rel)
	return Candidate{
		Path:  path,
		Rel:   rel,
		Kind:  kind,
		Depth: Depth(rel),
		Size:  size,
	}, nil
}

// Depth counts directory separators in a root-relative path. A file directly
// under the scan root has depth zero.
func Depth(rel string) int {
	return strings.Count(filepath.ToSlash(rel), "/")
}

// Base returns the candidate's file name.
func (c Candidate) Base() string {
	return filepath.Base(c.Path)
}
