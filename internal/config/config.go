package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings read from the environment.
type Config struct {
	DBPath         string        `env:"TALLY_DB_PATH"`
	WindowsDir     string        `env:"TALLY_WINDOWS_DIR"`
	StatusFile     string        `env:"TALLY_STATUS_FILE"`
	LogFile        string        `env:"TALLY_LOG_FILE"`
	LogLevel       string        `env:"TALLY_LOG_LEVEL"        envDefault:"info"`
	CycleStartHour int           `env:"TALLY_CYCLE_START_HOUR" envDefault:"6"`
	MergeWindow    time.Duration `env:"TALLY_MERGE_WINDOW"     envDefault:"30s"`
	Opener         string        `env:"TALLY_OPENER"           envDefault:"xdg-open"`
}

// Load parses the environment and fills path defaults under the user config dir.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" || cfg.WindowsDir == "" || cfg.LogFile == "" {
		base, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(base, "tally.db")
		}
		if cfg.WindowsDir == "" {
			cfg.WindowsDir = filepath.Join(base, "windows")
		}
		if cfg.LogFile == "" {
			cfg.LogFile = filepath.Join(base, "tally.log")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c Config) Validate() error {
	if c.CycleStartHour < 0 || c.CycleStartHour > 23 {
		return fmt.Errorf("TALLY_CYCLE_START_HOUR must be within 0-23, got %d", c.CycleStartHour)
	}
	if c.MergeWindow < 0 {
		return fmt.Errorf("TALLY_MERGE_WINDOW must not be negative, got %s", c.MergeWindow)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultDir returns ~/.config/tally
func DefaultDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tally"), nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a text logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenLogFile opens (appending) the configured log file. The TUI owns
// stdout, so everything it logs goes here.
func (c Config) OpenLogFile() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
