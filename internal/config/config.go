package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Refresh    RefreshConfig    `yaml:"refresh" envconfig:"REFRESH"`
}

// ServerConfig contains HTTP server configuration.
//
// Defaults live in Default(), not in struct tags: envconfig applies a
// `default` tag whenever the env var is unset, which would overwrite
// values loaded from config.yaml.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains the configurable directory roots. Relative paths
// are resolved against the working directory by NewPaths.
type PathsConfig struct {
	SourcesDir string `yaml:"sources_dir" envconfig:"SOURCES_DIR"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	DBFile     string `yaml:"db_file" envconfig:"DB_FILE"`
}

// ProcessingConfig tunes the unification pipeline.
type ProcessingConfig struct {
	ParseWorkers  int     `yaml:"parse_workers" envconfig:"PARSE_WORKERS" validate:"gt=0"`
	HighRiskLevel float64 `yaml:"high_risk_level" envconfig:"HIGH_RISK_LEVEL"`
	TrendWindow   int     `yaml:"trend_window" envconfig:"TREND_WINDOW" validate:"gt=0"`
}

// RefreshConfig controls scheduled re-ingestion in the server.
type RefreshConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Schedule string `yaml:"schedule" envconfig:"SCHEDULE"`
}

// Load loads configuration from environment variables (prefix HSE) layered
// over an optional config.yaml layered over built-in defaults, then
// validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment variables take precedence over the file. envconfig only
	// touches fields whose variable is set (no default tags), so file
	// values survive.
	if err := envconfig.Process("HSE", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  50,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			SourcesDir: "data/sources",
			ExportsDir: "data/exports",
			LogsDir:    "logs",
			DBFile:     "data/hsecli.db",
		},
		Processing: ProcessingConfig{
			ParseWorkers:  4,
			HighRiskLevel: 0.7,
			TrendWindow:   5,
		},
		Refresh: RefreshConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *",
		},
	}
}
