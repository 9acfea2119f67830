package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winnow/internal/config"
	"winnow/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("WINNOW_STATE_DIR", "")

	cfg := testsupport.NewConfig(t, testsupport.WithCompareSize(16))

	configPath := filepath.Join(homeDir, ".config", "winnow", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[scan]
quarantine_dir_name = %q
compare_size = %d

[logging]
level = %q
retention_days = %d
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Scan.QuarantineDirName,
		cfg.Scan.CompareSize,
		cfg.Logging.Level,
		cfg.Logging.RetentionDays,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// makeDuplicateTree writes the same image at the tree root and one level
// down, so a scan quarantines the shallow copy.
func makeDuplicateTree(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	root := filepath.Join(env.baseDir, "tree")
	img := testsupport.VerticalSplitImage(64, 64)
	testsupport.WritePNG(t, filepath.Join(root, "photo.png"), img)
	testsupport.WritePNG(t, filepath.Join(root, "albums", "photo.png"), img)
	return root
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
