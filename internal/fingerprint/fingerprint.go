package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	"winnow/internal/media"
)

// DefaultCompareSize is the edge length images are normalized to before
// hashing. One bit per pixel of the normalized square, so the default yields
// 90000-bit fingerprints.
const DefaultCompareSize = 300

const videoChunkSize = 8 * 1024

// Fingerprint is a content-derived identity for a media file. Keys are stable
// across runs and processes: the same bytes always map to the same key.
type Fingerprint struct {
	kind   media.Kind
	key    string
	bits   int
	hash   *goimagehash.ExtImageHash
	digest []byte
}

// Kind reports which pipeline produced the fingerprint.
func (f *Fingerprint) Kind() media.Kind { return f.kind }

// Key returns the full fingerprint key. Equal keys from the same kind
// identify duplicate content.
func (f *Fingerprint) Key() string { return f.key }

// Bits returns the fingerprint length in bits.
func (f *Fingerprint) Bits() int { return f.bits }

// ShortKey returns a compact stable digest of the key for display and audit
// records. Image keys run to tens of kilobytes of hex; the short form is
// sixteen characters.
func (f *Fingerprint) ShortKey() string {
	sum := sha256.Sum256([]byte(f.key))
	return hex.EncodeToString(sum[:8])
}

// Image computes a perceptual average hash. The picture is converted to
// grayscale and resampled to size x size with Lanczos before hashing, so
// resaves and rescales of the same picture land on or near the same key.
// A non-positive size falls back to DefaultCompareSize.
func Image(path string, size int) (*Fingerprint, error) {
	if size <= 0 {
		size = DefaultCompareSize
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, media.Wrap(media.ErrDecode, string(media.KindImage), "decode", path, err)
	}
	normalized := imaging.Resize(imaging.Grayscale(img), size, size, imaging.Lanczos)
	hash, err := goimagehash.ExtAverageHash(normalized, size, size)
	if err != nil {
		return nil, media.Wrap(media.ErrDecode, string(media.KindImage), "hash", path, err)
	}
	return &Fingerprint{
		kind: media.KindImage,
		key:  hash.ToString(),
		bits: hash.Bits(),
		hash: hash,
	}, nil
}

// Video computes an exact content fingerprint by streaming the file through
// SHA-256 in fixed-size chunks. Files are never loaded whole into memory.
func Video(path string) (*Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, media.Wrap(media.ErrIO, string(media.KindVideo), "open", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, videoChunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return nil, media.Wrap(media.ErrIO, string(media.KindVideo), "read", path, err)
	}
	digest := hasher.Sum(nil)
	return &Fingerprint{
		kind:   media.KindVideo,
		key:    hex.EncodeToString(digest),
		bits:   len(digest) * 8,
		digest: digest,
	}, nil
}
