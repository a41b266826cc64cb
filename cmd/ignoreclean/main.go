package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fenilsonani/ignoreclean/internal/cleaner"
	"github.com/fenilsonani/ignoreclean/internal/config"
	"github.com/fenilsonani/ignoreclean/internal/logging"
	"github.com/fenilsonani/ignoreclean/internal/reporter"
	"github.com/fenilsonani/ignoreclean/internal/security"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// errReported marks a fatal error that has already been printed
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "❌ "+err.Error())
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ignoreclean <path>",
		Short: "Delete files matched by .gitignore rules",
		Long: `ignoreclean walks a directory tree and removes every entry matched by the
.gitignore files found along the way. A nested rules file replaces its parent's
rules for that subtree. Nothing is deleted unless --delete is passed, and
symbolic links are never removed.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Flags(), args[0], stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().String("config", "", "config file path")
	config.BindFlags(rootCmd.Flags())

	rootCmd.AddCommand(newConfigCmd(stdout))
	return rootCmd
}

func runClean(flags *pflag.FlagSet, path string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	pv := security.NewPathValidator(cfg.ProtectedPaths)
	root, err := pv.ValidateRoot(path)
	if err != nil {
		return err
	}

	rptr, err := reporter.New(stdout, stderr, reporter.Options{
		Format:   cfg.Output,
		Quiet:    cfg.Quiet,
		ShowSize: cfg.CalculateSize,
	})
	if err != nil {
		return err
	}

	clnr, err := cleaner.New(cfg, cleaner.WithOutput(rptr), cleaner.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := clnr.Clean(root)
	if err != nil {
		rptr.Fatal(err)
		return errReported
	}

	logger.Info().
		Str("root", root).
		Int("matched", result.Matched).
		Int("deleted", result.Deleted).
		Int("errors", len(result.Errors)).
		Bool("aborted", result.Aborted).
		Msg("clean finished")

	if err := rptr.Report(result); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return nil
}

func newConfigCmd(stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Display the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := configFilePath(cmd.Flags())
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Config file: %s\n", cfgPath)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				fmt.Fprintln(stdout, "Config file does not exist. Using default configuration.")
				fmt.Fprintln(stdout, "\nTo create a config file:")
				fmt.Fprintln(stdout, "  ignoreclean config init")
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := configFilePath(cmd.Flags())
			if err != nil {
				return err
			}

			created, err := config.EnsureConfigExists(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if created {
				fmt.Fprintf(stdout, "✅ Created %s\n", cfgPath)
			} else {
				fmt.Fprintf(stdout, "Config file already exists: %s\n", cfgPath)
			}
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	return configCmd
}

// configFilePath returns --config or the default location
func configFilePath(flags *pflag.FlagSet) (string, error) {
	if p, err := flags.GetString("config"); err == nil && p != "" {
		return p, nil
	}
	return config.GetConfigPath()
}

func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfgPath, err := configFilePath(flags)
	if err != nil {
		return nil, err
	}
	return config.Load(cfgPath, flags)
}
