package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with size bytes derived from seed: equal
// seeds produce byte-identical files, different seeds differ at every
// position. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, seed byte, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	payload := make([]byte, size)
	state := seed
	for i := range payload {
		state = state*31 + 7
		payload[i] = state
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
