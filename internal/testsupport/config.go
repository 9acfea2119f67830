package testsupport

import (
	"path/filepath"
	"testing"

	"winnow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCompareSize overrides the fingerprint edge length. Small sizes keep
// image-heavy tests fast.
func WithCompareSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.CompareSize = size
	}
}

// WithWorkers pins the fingerprint worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Workers = n
	}
}

// WithExcludes sets traversal exclude patterns on the test config.
func WithExcludes(patterns ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Excludes = patterns
	}
}

// WithQuarantineDirName overrides the quarantine directory name.
func WithQuarantineDirName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.QuarantineDirName = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
