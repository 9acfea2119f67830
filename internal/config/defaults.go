package config

import "winnow/internal/media"

const (
	defaultStateDir          = "~/.local/share/winnow"
	defaultLogDir            = "~/.local/share/winnow/logs"
	defaultQuarantineDirName = "_duplicates"
	defaultCompareSize       = 300
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
)

// Default returns a Config populated with the stock settings. Path fields
// stay unexpanded until normalize runs.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Scan: Scan{
			QuarantineDirName: defaultQuarantineDirName,
			CompareSize:       defaultCompareSize,
			Workers:           0,
			ImageExtensions:   media.DefaultImageExtensions(),
			VideoExtensions:   media.DefaultVideoExtensions(),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
