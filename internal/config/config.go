// Package config loads and validates hostflow configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// PathsConfig holds path configuration.
type PathsConfig struct {
	ArtifactsDir string `toml:"artifacts_dir"`
	LogsDir      string `toml:"logs_dir"`
}

// TerminalConfig holds host-terminal timing settings.
type TerminalConfig struct {
	// LoginUnlockTimeout bounds the keyboard-unlock wait after connect.
	LoginUnlockTimeout time.Duration `toml:"login_unlock_timeout"`

	// LockCycleTimeout bounds the lock/unlock cycle after a submit.
	LockCycleTimeout time.Duration `toml:"lock_cycle_timeout"`

	// FieldFillTimeout bounds the unlock wait between field keystrokes.
	FieldFillTimeout time.Duration `toml:"field_fill_timeout"`
}

// BatchConfig holds batch execution settings.
type BatchConfig struct {
	// Concurrency caps simultaneously running workflow instances.
	// Zero means unbounded (one goroutine per row).
	Concurrency int `toml:"concurrency"`

	// WorkflowDeadline bounds each workflow instance; rows still running
	// at the deadline are reported as Timeout failures.
	WorkflowDeadline time.Duration `toml:"workflow_deadline"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for hostflow.
type Config struct {
	Version  string         `toml:"version"`
	Paths    PathsConfig    `toml:"paths"`
	Terminal TerminalConfig `toml:"terminal"`
	Batch    BatchConfig    `toml:"batch"`
	Logging  LoggingConfig  `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Paths: PathsConfig{
			ArtifactsDir: "artifacts",
			LogsDir:      ".hostflow/logs",
		},
		Terminal: TerminalConfig{
			LoginUnlockTimeout: 30 * time.Second,
			LockCycleTimeout:   5 * time.Second,
			FieldFillTimeout:   500 * time.Millisecond,
		},
		Batch: BatchConfig{
			Concurrency:      0, // One goroutine per row
			WorkflowDeadline: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatJSON,
			File:   "",
		},
	}
}

// Load loads configuration from file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from the standard location in a directory:
// defaults overlaid with <dir>/hostflow.toml when present.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "hostflow.toml"))
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}
	if c.Paths.ArtifactsDir == "" {
		return fmt.Errorf("artifacts_dir is required")
	}
	if c.Terminal.LoginUnlockTimeout <= 0 {
		return fmt.Errorf("login_unlock_timeout must be positive")
	}
	if c.Terminal.LockCycleTimeout <= 0 {
		return fmt.Errorf("lock_cycle_timeout must be positive")
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	if c.Batch.WorkflowDeadline <= 0 {
		return fmt.Errorf("workflow_deadline must be positive")
	}
	return nil
}

// ArtifactsDir returns the absolute artifacts directory path.
func (c *Config) ArtifactsDir(baseDir string) string {
	if filepath.IsAbs(c.Paths.ArtifactsDir) {
		return c.Paths.ArtifactsDir
	}
	return filepath.Join(baseDir, c.Paths.ArtifactsDir)
}

// LogFile returns the absolute log file path, or "" if file logging is off.
func (c *Config) LogFile(baseDir string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	if filepath.IsAbs(c.Paths.LogsDir) {
		return filepath.Join(c.Paths.LogsDir, c.Logging.File)
	}
	return filepath.Join(baseDir, c.Paths.LogsDir, c.Logging.File)
}
