package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/staffmeal/validation-service/internal/explain"
	"github.com/staffmeal/validation-service/internal/inference"
	"github.com/staffmeal/validation-service/internal/stats"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Inference inference.Config  `mapstructure:"inference"`
	Explain   explain.Config    `mapstructure:"explain"`
	Alerts    stats.AlertConfig `mapstructure:"alerts"`
	Auth      AuthConfig        `mapstructure:"auth"`
	Retention RetentionConfig   `mapstructure:"retention"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Telemetry TelemetryConfig   `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig holds service-to-service authentication configuration
type AuthConfig struct {
	InternalAPIKey string `mapstructure:"internal_api_key"`
}

// RetentionConfig controls how long validation records are kept and
// how often the retention sweeper runs.
type RetentionConfig struct {
	RecordRetentionDays int           `mapstructure:"record_retention_days"`
	SweepInterval       time.Duration `mapstructure:"sweep_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	Environment string `mapstructure:"environment"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional, log but don't fail
	if err := loadEnvFile(); err != nil {
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("STAFFMEAL")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Alerts.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file from the usual locations
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Auth
	v.BindEnv("auth.internal_api_key", "INTERNAL_API_KEY")

	// AI providers
	v.BindEnv("inference.provider", "INFERENCE_PROVIDER")
	v.BindEnv("inference.model", "INFERENCE_MODEL")
	v.BindEnv("inference.api_key", "INFERENCE_API_KEY")
	v.BindEnv("explain.model", "EXPLAIN_MODEL")
	v.BindEnv("explain.api_key", "EXPLAIN_API_KEY")

	// Telemetry
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Inference defaults
	v.SetDefault("inference.provider", "gemini")
	v.SetDefault("inference.http.max_retries", 3)
	v.SetDefault("inference.http.initial_backoff_ms", 250)
	v.SetDefault("inference.http.max_backoff_ms", 15000)
	v.SetDefault("inference.http.timeout", 60*time.Second)

	// Explanation defaults
	v.SetDefault("explain.http.max_retries", 3)
	v.SetDefault("explain.http.initial_backoff_ms", 250)
	v.SetDefault("explain.http.max_backoff_ms", 15000)
	v.SetDefault("explain.http.timeout", 30*time.Second)

	// Alert threshold defaults
	defaults := stats.DefaultAlertConfig()
	v.SetDefault("alerts.critical_error_rate", defaults.CriticalErrorRate)
	v.SetDefault("alerts.warn_completion_rate", defaults.WarnCompletionRate)
	v.SetDefault("alerts.forgotten_item_threshold", defaults.ForgottenItemThreshold)
	v.SetDefault("alerts.hour_spike_multiplier", defaults.HourSpikeMultiplier)
	v.SetDefault("alerts.critical_hours_min_errors", defaults.CriticalHoursMinErrors)
	v.SetDefault("alerts.critical_hours_top_n", defaults.CriticalHoursTopN)

	// Retention defaults
	v.SetDefault("retention.record_retention_days", 365)
	v.SetDefault("retention.sweep_interval", 12*time.Hour)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.environment", "production")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
