// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Experiment metadata sources.
const (
	SourceFile      = "file"
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Engine settings
	EngineMode string
	AppName    string

	// Pipeline inputs and output
	LogsPath        string
	ExperimentsPath string
	OutputPath      string

	// Late-log threshold in hours. Deliberately unvalidated: negative and
	// fractional thresholds are legal inputs to the filter.
	LateHours float64

	// Experiment metadata source
	ExperimentsSource string
	ExperimentsQuery  string
	Postgres          *PostgresConfig
	Snowflake         *SnowflakeConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		EngineMode:        getEnv("ENGINE_MODE", "local[1]"),
		AppName:           getEnv("APP_NAME", "ML Logs Transformer"),
		LogsPath:          getEnv("LOGS_PATH", ""),
		ExperimentsPath:   getEnv("EXPERIMENTS_PATH", ""),
		OutputPath:        getEnv("OUTPUT_PATH", ""),
		LateHours:         getEnvAsFloat("LATE_HOURS", 1),
		ExperimentsSource: getEnv("EXPERIMENTS_SOURCE", SourceFile),
		ExperimentsQuery:  getEnv("EXPERIMENTS_QUERY", "SELECT exp_id, exp_name FROM experiments"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	// Database configuration is only required when experiments come from a
	// warehouse instead of a delimited file.
	switch cfg.ExperimentsSource {
	case SourcePostgres:
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	case SourceSnowflake:
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.EngineMode == "" {
		return errors.New("engine mode is required")
	}

	switch c.ExperimentsSource {
	case SourceFile, SourcePostgres, SourceSnowflake:
	default:
		return fmt.Errorf("unknown experiments source %q", c.ExperimentsSource)
	}

	if c.ExperimentsSource == SourcePostgres && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.ExperimentsSource == SourceSnowflake && c.Snowflake == nil {
		return errors.New("snowflake configuration is required")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
