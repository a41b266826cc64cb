package config

import (
	"time"

	"github.com/fenilsonani/ignoreclean/internal/logging"
	"github.com/fenilsonani/ignoreclean/internal/rules"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		Delete:        false, // Dry run unless --delete is passed
		Quiet:         false,
		IgnoreErrors:  false,
		SkipNested:    false,
		SkipPatterns:  []string{},
		CalculateSize: false,
		RulesFile:     rules.DefaultFileName,
		DryRunDelay:   500 * time.Millisecond,
		Output:        OutputText,
		LogLevel:      logging.DefaultLevel,
		ProtectedPaths: []string{
			"/",
			"/System",
			"/Applications",
			"/Library",
			"/bin",
			"/sbin",
			"/usr",
			"/etc",
			"/var",
			"/dev",
			"/boot",
			"/lib",
			"/lib64",
			"/opt",
			"/proc",
			"/root",
			"/run",
			"/srv",
			"/sys",
		},
	}
}
