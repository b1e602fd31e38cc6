// Package cmd implements the hostflow command line interface.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hostflow-stack/hostflow/internal/config"
	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/logging"
	"github.com/hostflow-stack/hostflow/internal/terminal"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	verbose bool
	workDir string

	logCloser io.Closer
)

// SessionFactory builds the host terminal session behind run and
// batch. The wire protocol is external to this engine; link a driver
// and replace this variable to connect to real hosts.
var SessionFactory terminal.Factory = func(host, user, password string) (terminal.Session, *terminal.KeyboardGate, error) {
	return nil, nil, fmt.Errorf("no terminal session driver linked for host %q", host)
}

var rootCmd = &cobra.Command{
	Use:   "hostflow",
	Short: "Workflow automation for legacy host terminals",
	Long: `hostflow drives scripted workflows against legacy host terminal
sessions: validate workflow definitions, dry-run them against a dataset,
execute a single instance, or run a full batch with metrics and
reliability scoring.

Workflows are YAML step lists (LOGIN, NAVIGATE, FILL, SUBMIT, ASSERT,
WAIT, CAPTURE) parameterized by ${data.<key>} placeholders resolved
against CSV dataset rows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, baseDir, err := loadConfig()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = config.LogLevelDebug
		}
		logger, closer, err := logging.NewFromConfig(cfg, baseDir)
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		logCloser = closer
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "working directory (default: current)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("hostflow {{.Version}}\n")
}

// getWorkDir returns the effective working directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

// loadConfig loads hostflow.toml from the working directory, falling
// back to defaults when absent.
func loadConfig() (*config.Config, string, error) {
	dir, err := getWorkDir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

// printError writes a structured error with its details to stderr.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if fe, ok := err.(*errors.FlowError); ok {
		for key, value := range fe.Details {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}
}
