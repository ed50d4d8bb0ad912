// Package config loads application configuration from an optional YAML
// file overlaid with EXPWATCH_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "EXPWATCH_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Notify    NotifyConfig    `koanf:"notify"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	CORS      CORSConfig      `koanf:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metricsport"`
	ReadTimeout       time.Duration `koanf:"readtimeout"`
	ReadHeaderTimeout time.Duration `koanf:"readheadertimeout"`
	WriteTimeout      time.Duration `koanf:"writetimeout"`
	IdleTimeout       time.Duration `koanf:"idletimeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"maxopenconns"`
	MaxIdleConns    int           `koanf:"maxidleconns"`
	ConnMaxLifetime time.Duration `koanf:"connmaxlifetime"`
	ConnectTimeout  time.Duration `koanf:"connecttimeout"`
	ConnectAttempts int           `koanf:"connectattempts"`
}

// WorkerConfig holds the per-queue worker pool settings.
type WorkerConfig struct {
	Concurrency       int           `koanf:"concurrency"`
	BatchSize         int           `koanf:"batchsize"`
	PollInterval      time.Duration `koanf:"pollinterval"`
	VisibilityTimeout time.Duration `koanf:"visibilitytimeout"`
	MaxAttempts       int           `koanf:"maxattempts"`
	InitialBackoff    time.Duration `koanf:"initialbackoff"`
	MaxBackoff        time.Duration `koanf:"maxbackoff"`
	BackoffMultiplier float64       `koanf:"backoffmultiplier"`
}

// FetchConfig holds the fetch stage settings: worker pool plus the
// outbound proxy gateway.
type FetchConfig struct {
	Worker        WorkerConfig  `koanf:"worker"`
	ProxyURL      string        `koanf:"proxyurl"`
	ProxyUser     string        `koanf:"proxyuser"`
	ProxyPassword string        `koanf:"proxypassword"`
	Timeout       time.Duration `koanf:"timeout"`
}

// NotifyConfig holds the notify stage settings: worker pool plus the
// messaging gateway.
type NotifyConfig struct {
	Worker             WorkerConfig  `koanf:"worker"`
	APIURL             string        `koanf:"apiurl"`
	APIKey             string        `koanf:"apikey"`
	RatePerSecond      float64       `koanf:"ratepersecond"`
	Timeout            time.Duration `koanf:"timeout"`
	SkipEmptyRecipient bool          `koanf:"skipemptyrecipient"`
}

// SchedulerConfig holds the fetch trigger settings.
type SchedulerConfig struct {
	Spec    string `koanf:"spec"`
	Enabled bool   `koanf:"enabled"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowedorigins"`
}

// Default returns the configuration defaults. File and environment
// values overlay these.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Fetch: FetchConfig{
			Worker: WorkerConfig{
				Concurrency:       5,
				BatchSize:         20,
				PollInterval:      5 * time.Second,
				VisibilityTimeout: 2 * time.Minute,
				MaxAttempts:       3,
				InitialBackoff:    time.Second,
				MaxBackoff:        5 * time.Minute,
				BackoffMultiplier: 2.0,
			},
			Timeout: 30 * time.Second,
		},
		Notify: NotifyConfig{
			Worker: WorkerConfig{
				Concurrency:       3,
				BatchSize:         20,
				PollInterval:      5 * time.Second,
				VisibilityTimeout: time.Minute,
				MaxAttempts:       3,
				InitialBackoff:    2 * time.Second,
				MaxBackoff:        5 * time.Minute,
				BackoffMultiplier: 2.0,
			},
			Timeout: 10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Spec:    "*/5 * * * *",
			Enabled: true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads configuration from the given YAML file (skipped when the
// path is empty or the file does not exist) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// EXPWATCH_DATABASE__URL maps to database.url; a double underscore
	// separates nesting levels so single underscores stay literal.
	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required settings. A failure here is fatal at
// startup, never handled per job.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Notify.APIURL == "" {
		errs = append(errs, errors.New("notify.apiurl is required"))
	}
	if c.Fetch.ProxyURL != "" && c.Fetch.ProxyUser == "" {
		errs = append(errs, errors.New("fetch.proxyuser is required when fetch.proxyurl is set"))
	}
	if c.Scheduler.Spec == "" {
		errs = append(errs, errors.New("scheduler.spec is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
