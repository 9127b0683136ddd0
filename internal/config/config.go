// Package config provides configuration management for resolvarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/resolvarr/resolvarr/internal/capability"
	"github.com/resolvarr/resolvarr/internal/urlutil"
)

// Default configuration values.
const (
	defaultServerPort      = 8474
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultUpstreamURL     = "http://localhost:11470"
	defaultProbeTimeout    = 30 * time.Second
	defaultRetryAttempts   = 2
	defaultRetryDelay      = 1 * time.Second
	defaultMonitorCron     = "*/1 * * * *"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	HTTPClient HTTPClientConfig `mapstructure:"httpclient"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// UpstreamConfig holds the streaming-server configuration the resolver
// targets.
type UpstreamConfig struct {
	// BaseURL is the streaming server base URL, e.g. "http://localhost:11470".
	BaseURL string `mapstructure:"base_url"`
	// Platform selects the playback capability profile (ios, android, web).
	// Unknown values fall back to the conservative web profile.
	Platform string `mapstructure:"platform"`
	// ProbeTimeout bounds a single probe request.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// HTTPClientConfig holds outbound HTTP client configuration.
type HTTPClientConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// MonitorConfig holds upstream health monitor configuration.
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Cron is a standard 5-field cron expression for health check runs.
	Cron string `mapstructure:"cron"`
	// HistoryRetention is how long resolution history rows are kept.
	// Zero disables pruning.
	HistoryRetention time.Duration `mapstructure:"history_retention"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with RESOLVARR_ and use underscores for
// nesting. Example: RESOLVARR_SERVER_PORT=8474.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/resolvarr")
		v.AddConfigPath("$HOME/.resolvarr")
	}

	v.SetEnvPrefix("RESOLVARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults
// are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "resolvarr.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Upstream defaults
	v.SetDefault("upstream.base_url", defaultUpstreamURL)
	v.SetDefault("upstream.platform", string(capability.PlatformWeb))
	v.SetDefault("upstream.probe_timeout", defaultProbeTimeout)

	// HTTP client defaults
	v.SetDefault("httpclient.retry_attempts", defaultRetryAttempts)
	v.SetDefault("httpclient.retry_delay", defaultRetryDelay)
	v.SetDefault("httpclient.user_agent", "")

	// Monitor defaults
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.cron", defaultMonitorCron)
	v.SetDefault("monitor.history_retention", 7*24*time.Hour)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if err := urlutil.ValidateBaseURL(c.Upstream.BaseURL); err != nil {
		return fmt.Errorf("upstream.base_url: %w", err)
	}
	if c.Upstream.ProbeTimeout <= 0 {
		return fmt.Errorf("upstream.probe_timeout must be positive")
	}

	if c.HTTPClient.RetryAttempts < 0 {
		return fmt.Errorf("httpclient.retry_attempts must not be negative")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PlaybackPlatform returns the parsed capability platform.
func (c *UpstreamConfig) PlaybackPlatform() capability.Platform {
	return capability.ParsePlatform(c.Platform)
}
