package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	name := c.Scan.QuarantineDirName
	if name == "" {
		return errors.New("scan.quarantine_dir_name must be set")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("scan.quarantine_dir_name must be a plain directory name, got %q", name)
	}
	if c.Scan.CompareSize <= 0 {
		return errors.New("scan.compare_size must be positive")
	}
	if c.Scan.Workers < 0 {
		return errors.New("scan.workers must be >= 0 (0 selects automatically)")
	}
	if len(c.Scan.ImageExtensions) == 0 {
		return errors.New("scan.image_extensions must include at least one extension")
	}
	if len(c.Scan.VideoExtensions) == 0 {
		return errors.New("scan.video_extensions must include at least one extension")
	}
	for _, pattern := range c.Scan.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("scan.excludes contains invalid pattern %q", pattern)
		}
	}
	return nil
}
