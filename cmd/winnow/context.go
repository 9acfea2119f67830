package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"winnow/internal/config"
	"winnow/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// buildLogger constructs the command logger: console plus the shared log
// file, with flag overrides applied on top of the configured defaults.
// Quiet mode raises the console threshold unless --log-level is explicit.
func (c *commandContext) buildLogger(cfg *config.Config, quiet bool) (*slog.Logger, error) {
	outputs := []string{"stdout"}
	errorOutputs := []string{"stderr"}
	if logPath := logging.LogFilePath(cfg); logPath != "" {
		outputs = append(outputs, logPath)
		errorOutputs = append(errorOutputs, logPath)
	}
	return logging.New(logging.Options{
		Level:            c.logLevel(cfg, quiet),
		Format:           c.logFormat(cfg),
		OutputPaths:      outputs,
		ErrorOutputPaths: errorOutputs,
	})
}

func (c *commandContext) logLevel(cfg *config.Config, quiet bool) string {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			return level
		}
	}
	if quiet {
		return "warn"
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return "info"
}

func (c *commandContext) logFormat(cfg *config.Config) string {
	if c.logFormatFlag != nil {
		if format := strings.TrimSpace(*c.logFormatFlag); format != "" {
			return format
		}
	}
	if cfg != nil {
		return cfg.Logging.Format
	}
	return "console"
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
