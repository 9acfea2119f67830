package fingerprint

import (
	"fmt"
	"math"
	"math/bits"

	"winnow/internal/media"
)

// Similarity scores two fingerprints as a percentage rounded to two decimals:
// 100 means every bit matches, 0 means every bit differs. Both fingerprints
// must come from the same pipeline and have the same bit length.
func Similarity(a, b *Fingerprint) (float64, error) {
	if a == nil || b == nil {
		return 0, media.Wrap(media.ErrInvalidArgument, "", "similarity", "two fingerprints are required", nil)
	}
	if a.kind != b.kind {
		return 0, media.Wrap(media.ErrInvalidArgument, "", "similarity",
			fmt.Sprintf("kind mismatch: %s vs %s", a.kind, b.kind), nil)
	}
	if a.bits == 0 || a.bits != b.bits {
		return 0, media.Wrap(media.ErrInvalidArgument, "", "similarity",
			fmt.Sprintf("length mismatch: %d vs %d bits", a.bits, b.bits), nil)
	}

	var distance int
	if a.hash != nil && b.hash != nil {
		d, err := a.hash.Distance(b.hash)
		if err != nil {
			return 0, media.Wrap(media.ErrInvalidArgument, "", "similarity", "compare hashes", err)
		}
		distance = d
	} else {
		for i := range a.digest {
			distance += bits.OnesCount8(a.digest[i] ^ b.digest[i])
		}
	}

	score := (1 - float64(distance)/float64(a.bits)) * 100
	return math.Round(score*100) / 100, nil
}
