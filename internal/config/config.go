// Package config loads the demo application's configuration: a YAML file,
// optional .env overrides, and a file watcher that applies the runtime-mutable
// enable flag without a restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	proberr "git.home.luguber.info/inful/probekit/internal/errors"
)

// Config represents the application configuration
type Config struct {
	// Enabled is the process-wide instrumentation switch. Unlike every other
	// field it is re-read by the config watcher while the process runs.
	Enabled bool `yaml:"enabled"`

	Logging  LoggingConfig  `yaml:"logging"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Workload WorkloadConfig `yaml:"workload"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// SinksConfig selects and configures agent backends.
type SinksConfig struct {
	Slog       bool             `yaml:"slog"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Store      StoreConfig      `yaml:"store"`
	NATS       NATSConfig       `yaml:"nats"`
}

// PrometheusConfig configures the metrics endpoint.
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port for /metrics
}

// StoreConfig configures the SQLite session store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // ":memory:" or a file path
}

// NATSConfig configures telemetry forwarding.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// WorkloadConfig drives the demo workload.
type WorkloadConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	Orders          int `yaml:"orders"` // orders simulated per run
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NormalizeLogLevel maps arbitrary input onto a supported level (info default).
func NormalizeLogLevel(raw string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn:
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// NormalizeLogFormat maps arbitrary input onto a supported format (text default).
func NormalizeLogFormat(raw string) LogFormat {
	if LogFormat(strings.ToLower(strings.TrimSpace(raw))) == LogFormatJSON {
		return LogFormatJSON
	}
	return LogFormatText
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Enabled: true,
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Sinks: SinksConfig{
			Slog:       true,
			Prometheus: PrometheusConfig{Enabled: true, Listen: ":9180"},
			Store:      StoreConfig{Enabled: false, Path: "probekit-session.db"},
			NATS:       NATSConfig{Enabled: false, URL: "nats://127.0.0.1:4222"},
		},
		Workload: WorkloadConfig{IntervalSeconds: 10, Orders: 5},
	}
}

// Load reads the configuration file, layering .env values (loaded best-effort,
// never overriding the process environment) and PROBEKIT_* overrides on top.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // absent .env is the normal case

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, proberr.WrapError(err, proberr.CategoryConfig, "read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, proberr.WrapError(err, proberr.CategoryConfig, "parse config file")
	}
	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// Write serializes the configuration to path, refusing to clobber an existing
// file unless force is set.
func Write(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return proberr.New(proberr.CategoryConfig, proberr.SeverityError,
				fmt.Sprintf("refusing to overwrite %s (use --force)", path))
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return proberr.WrapError(err, proberr.CategoryConfig, "serialize config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return proberr.WrapError(err, proberr.CategoryConfig, "write config file")
	}
	return nil
}

func (c *Config) normalize() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if c.Workload.IntervalSeconds <= 0 {
		c.Workload.IntervalSeconds = 10
	}
	if c.Workload.Orders <= 0 {
		c.Workload.Orders = 5
	}
	if c.Sinks.Prometheus.Listen == "" {
		c.Sinks.Prometheus.Listen = ":9180"
	}
}

// applyEnv layers PROBEKIT_* environment overrides onto the config.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PROBEKIT_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("PROBEKIT_LOG_LEVEL"); ok {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
	if v, ok := os.LookupEnv("PROBEKIT_LOG_FORMAT"); ok {
		cfg.Logging.Format = NormalizeLogFormat(v)
	}
	if v, ok := os.LookupEnv("PROBEKIT_NATS_URL"); ok && v != "" {
		cfg.Sinks.NATS.URL = v
	}
	if v, ok := os.LookupEnv("PROBEKIT_STORE_PATH"); ok && v != "" {
		cfg.Sinks.Store.Path = v
	}
}
