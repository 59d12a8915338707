package config

import (
	"os"
	"strconv"
	"strings"

	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/resolution"
	"gotidy/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// PipelineConfig holds the defaults for a cleaning run
type PipelineConfig struct {
	Seed        int64
	DateFormats []string
	DateMode    dates.Mode
	FillValue   string
	Policy      string
	Workers     int
}

// DatabaseConfig holds the run store connection. An empty URL disables
// persistence.
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	URL    string
}

// Enabled reports whether a run store is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// LoadDotEnv loads an optional .env file; variables already set win.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Log: LogConfig{
			Level:  getEnvOrDefault("TIDY_LOG_LEVEL", "info"),
			Format: getEnvOrDefault("TIDY_LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnvOrDefault("TIDY_DB_DRIVER", "postgres")),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	config.Pipeline = *pipeline

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadPipelineConfig() (*PipelineConfig, error) {
	mode, err := dates.ParseMode(os.Getenv("TIDY_DATE_MODE"))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	formats := append([]string(nil), dates.DefaultFormats...)
	if raw := os.Getenv("TIDY_DATE_FORMATS"); raw != "" {
		formats = splitList(raw)
	}

	return &PipelineConfig{
		Seed:        getEnvInt64OrDefault("TIDY_SEED", 42),
		DateFormats: formats,
		DateMode:    mode,
		FillValue:   getEnvOrDefault("TIDY_FILL_VALUE", "Unknown"),
		Policy:      getEnvOrDefault("TIDY_POLICY", resolution.PolicyBackfillThenFill),
		Workers:     getEnvIntOrDefault("TIDY_WORKERS", 4),
	}, nil
}

func validateConfig(config *Config) error {
	if len(config.Pipeline.DateFormats) == 0 {
		return errors.ConfigInvalid("TIDY_DATE_FORMATS lists no formats")
	}
	if config.Pipeline.Workers < 1 {
		return errors.ConfigInvalid("TIDY_WORKERS must be at least 1")
	}
	if _, err := resolution.ParsePolicy(config.Pipeline.Policy, resolution.ConstantFromString(config.Pipeline.FillValue)); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("TIDY_DB_DRIVER must be postgres or sqlite")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be a number")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
