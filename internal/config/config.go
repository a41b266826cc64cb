package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/ignoreclean/internal/logging"
	"github.com/fenilsonani/ignoreclean/internal/security"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides (IGNORECLEAN_QUIET, ...)
const EnvPrefix = "IGNORECLEAN"

// Output formats accepted by the reporter
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config is the run configuration. It is captured once before the walk and
// never mutated afterwards.
type Config struct {
	// Delete enables real deletion. It is only ever set from the command
	// line, never from a config file or the environment.
	Delete         bool          `mapstructure:"-" yaml:"-"`
	Quiet          bool          `mapstructure:"quiet" yaml:"quiet"`
	IgnoreErrors   bool          `mapstructure:"ignore_errors" yaml:"ignore_errors"`
	SkipNested     bool          `mapstructure:"skip_nested" yaml:"skip_nested"`
	SkipPatterns   []string      `mapstructure:"skip_patterns" yaml:"skip_patterns"`
	CalculateSize  bool          `mapstructure:"calculate_size" yaml:"calculate_size"`
	RulesFile      string        `mapstructure:"rules_file" yaml:"rules_file"`
	DryRunDelay    time.Duration `mapstructure:"dry_run_delay" yaml:"dry_run_delay"`
	Output         string        `mapstructure:"output" yaml:"output"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	ProtectedPaths []string      `mapstructure:"protected_paths" yaml:"protected_paths"`
}

// flagKeys maps config keys to the command-line flags that override them
var flagKeys = map[string]string{
	"quiet":          "quiet",
	"ignore_errors":  "ignore-errors",
	"skip_nested":    "skip-nested",
	"calculate_size": "calculate-size",
	"rules_file":     "rules-file",
	"dry_run_delay":  "dry-run-delay",
	"output":         "output",
	"log_level":      "log-level",
}

// BindFlags registers the run flags on fs
func BindFlags(fs *pflag.FlagSet) {
	d := GetDefault()

	fs.BoolP("delete", "d", false, "enable deletion (default is a dry run)")
	fs.BoolP("quiet", "q", d.Quiet, "do not list matched entries")
	fs.BoolP("ignore-errors", "i", d.IgnoreErrors, "report and skip directories that cannot be read")
	fs.Bool("skip-nested", d.SkipNested, "do not descend into directories that have their own rules file")
	fs.StringArray("skip-patterns", nil, "regex matched against canonical paths to protect from deletion (repeatable)")
	fs.Bool("calculate-size", d.CalculateSize, "measure matched entries and print the total size")
	fs.String("rules-file", d.RulesFile, "name of the per-directory rules file")
	fs.Duration("dry-run-delay", d.DryRunDelay, "pause before a dry run starts")
	fs.StringP("output", "o", d.Output, "output format (text, json, yaml)")
	fs.String("log-level", d.LogLevel, "diagnostic log level (trace, debug, info, warn, error)")
}

// Load builds the configuration from defaults, the config file at
// configPath, IGNORECLEAN_* environment variables and flags, in increasing
// order of precedence. A missing config file is not an error.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// A plain string (environment or scalar YAML) holds one pattern. Regexes
	// may contain commas, so it is never split.
	if raw, ok := v.Get("skip_patterns").(string); ok {
		cfg.SkipPatterns = nil
		if raw != "" {
			cfg.SkipPatterns = []string{raw}
		}
	}

	if flags != nil {
		if f := flags.Lookup("skip-patterns"); f != nil && f.Changed {
			patterns, err := flags.GetStringArray("skip-patterns")
			if err != nil {
				return nil, err
			}
			cfg.SkipPatterns = patterns
		}
		if f := flags.Lookup("delete"); f != nil {
			del, err := flags.GetBool("delete")
			if err != nil {
				return nil, err
			}
			cfg.Delete = del
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults seeds viper with GetDefault values
func setDefaults(v *viper.Viper) {
	d := GetDefault()
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("ignore_errors", d.IgnoreErrors)
	v.SetDefault("skip_nested", d.SkipNested)
	v.SetDefault("skip_patterns", d.SkipPatterns)
	v.SetDefault("calculate_size", d.CalculateSize)
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("dry_run_delay", d.DryRunDelay)
	v.SetDefault("output", d.Output)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("protected_paths", d.ProtectedPaths)
}

// fileConfig is the on-disk shape written by Save
type fileConfig struct {
	Quiet          bool     `yaml:"quiet"`
	IgnoreErrors   bool     `yaml:"ignore_errors"`
	SkipNested     bool     `yaml:"skip_nested"`
	SkipPatterns   []string `yaml:"skip_patterns"`
	CalculateSize  bool     `yaml:"calculate_size"`
	RulesFile      string   `yaml:"rules_file"`
	DryRunDelay    string   `yaml:"dry_run_delay"`
	Output         string   `yaml:"output"`
	LogLevel       string   `yaml:"log_level"`
	ProtectedPaths []string `yaml:"protected_paths"`
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(fileConfig{
		Quiet:          config.Quiet,
		IgnoreErrors:   config.IgnoreErrors,
		SkipNested:     config.SkipNested,
		SkipPatterns:   config.SkipPatterns,
		CalculateSize:  config.CalculateSize,
		RulesFile:      config.RulesFile,
		DryRunDelay:    config.DryRunDelay.String(),
		Output:         config.Output,
		LogLevel:       config.LogLevel,
		ProtectedPaths: config.ProtectedPaths,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Skip patterns are operator-supplied regexes; a bad one is a config error
	for _, pattern := range c.SkipPatterns {
		if err := security.ValidateSkipPattern(pattern); err != nil {
			return err
		}
	}

	if c.RulesFile == "" {
		return fmt.Errorf("rules file name must not be empty")
	}
	if c.RulesFile == "." || c.RulesFile == ".." || filepath.Base(c.RulesFile) != c.RulesFile || strings.ContainsRune(c.RulesFile, '/') {
		return fmt.Errorf("rules file must be a plain file name: %s", c.RulesFile)
	}

	if c.DryRunDelay < 0 {
		return fmt.Errorf("dry run delay must be >= 0")
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	return nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "ignoreclean")
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists(configPath string) (created bool, err error) {
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if err := Save(GetDefault(), configPath); err != nil {
		return false, err
	}
	return true, nil
}
