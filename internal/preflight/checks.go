package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"winnow/internal/config"
)

// CheckScanRoot verifies the inspection root exists and can be traversed.
// Outside dry runs the root also needs write access: quarantine moves
// rename entries out of it.
func CheckScanRoot(root string, dryRun bool) Result {
	const name = "Scan root"
	mode := uint32(unix.R_OK | unix.X_OK)
	if !dryRun {
		mode |= unix.W_OK
	}
	return checkDirectory(name, root, mode)
}

// CheckQuarantinePath verifies nothing blocks the quarantine directory.
// The directory itself is created lazily on the first move, so a missing
// path passes.
func CheckQuarantinePath(root, dirName string, dryRun bool) Result {
	const name = "Quarantine directory"

	path := filepath.Join(root, dirName)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first move)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: exists but is not a directory)", path)}
	}
	mode := uint32(unix.R_OK | unix.X_OK)
	if !dryRun {
		mode |= unix.W_OK
	}
	return checkDirectory(name, path, mode)
}

// CheckStateDir verifies the state directory tree can be created and written.
// The ledger database and scan locks live under it.
func CheckStateDir(cfg *config.Config) Result {
	const name = "State directory"
	if err := cfg.EnsureDirectories(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.StateDir, err)}
	}
	return CheckDirectoryAccess(name, cfg.Paths.StateDir)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK)
}

func checkDirectory(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (access ok)", path)}
}
