// Package config loads connectplay settings.
//
// Values are resolved in order: defaults, then the YAML (or JSON) file, then
// CONNECTPLAY_* environment variables. The result is validated before use.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CONNECTPLAY_"

// Config is the full application configuration.
type Config struct {
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Game     GameConfig     `json:"game" yaml:"game"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// AnalysisConfig tunes the background analyzer.
type AnalysisConfig struct {
	ReportInterval time.Duration `json:"report_interval" yaml:"report_interval"`
	MaxNodes       int           `json:"max_nodes" yaml:"max_nodes"` // 0 = unlimited
	IdlePoll       time.Duration `json:"idle_poll" yaml:"idle_poll"`
}

// GameConfig controls the interactive game.
type GameConfig struct {
	Human        string        `json:"human" yaml:"human"` // red, yellow or both
	ShowAnalysis bool          `json:"show_analysis" yaml:"show_analysis"`
	ThinkTime    time.Duration `json:"think_time" yaml:"think_time"` // engine's turn when only one side is human
}

// ServerConfig controls the analysis feed.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	Dir      string `json:"dir" yaml:"dir"` // empty = platform data dir
	Disabled bool   `json:"disabled" yaml:"disabled"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // console or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			ReportInterval: 200 * time.Millisecond,
			MaxNodes:       5_000_000,
			IdlePoll:       50 * time.Millisecond,
		},
		Game: GameConfig{
			Human:        "both",
			ShowAnalysis: true,
			ThinkTime:    2 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from path (optional) and the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): YAML error: %v, JSON error: %w", path, err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) error {
	var errs []error
	lookup := func(name string) (string, bool) {
		v := os.Getenv(EnvPrefix + name)
		return v, v != ""
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = i
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	duration("REPORT_INTERVAL", &cfg.Analysis.ReportInterval)
	integer("MAX_NODES", &cfg.Analysis.MaxNodes)
	duration("IDLE_POLL", &cfg.Analysis.IdlePoll)
	str("HUMAN", &cfg.Game.Human)
	boolean("SHOW_ANALYSIS", &cfg.Game.ShowAnalysis)
	duration("THINK_TIME", &cfg.Game.ThinkTime)
	str("ADDR", &cfg.Server.Addr)
	str("STORAGE_DIR", &cfg.Storage.Dir)
	boolean("STORAGE_DISABLED", &cfg.Storage.Disabled)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	return errors.Join(errs...)
}

// Validate checks that the configuration is usable and reports every problem found.
func (c Config) Validate() error {
	var errs []error
	if c.Analysis.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("analysis.report_interval must be > 0"))
	}
	if c.Analysis.IdlePoll <= 0 {
		errs = append(errs, fmt.Errorf("analysis.idle_poll must be > 0"))
	}
	if c.Analysis.MaxNodes < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_nodes must be >= 0"))
	}
	switch c.Game.Human {
	case "red", "yellow", "both":
	default:
		errs = append(errs, fmt.Errorf("game.human must be red, yellow or both, got %q", c.Game.Human))
	}
	if c.Game.ThinkTime <= 0 {
		errs = append(errs, fmt.Errorf("game.think_time must be > 0"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr must not be empty"))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
