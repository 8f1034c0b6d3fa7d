package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"psyphy/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Fitter   FitterConfig
	Stimulus StimulusConfig
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case the application falls back to the in-memory trial ledger.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// DSN returns the connection string with the configured sslmode applied.
// An sslmode already present in URL wins over the SSL_MODE variable.
func (d DatabaseConfig) DSN() string {
	if d.URL == "" || d.SSLMode == "" || strings.Contains(d.URL, "sslmode=") {
		return d.URL
	}
	sep := "?"
	if strings.Contains(d.URL, "?") {
		sep = "&"
	}
	return d.URL + sep + "sslmode=" + d.SSLMode
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// FitterConfig holds default psychometric fitting parameters. The lapse
// rate and initial scale are display/stimulus dependent heuristics, so
// they are configuration rather than constants.
type FitterConfig struct {
	GuessRate     float64
	LapseRate     float64
	InitialScale  float64
	MaxIterations int
	MaxRuntime    time.Duration
}

// StimulusConfig holds degradation engine settings
type StimulusConfig struct {
	FrequencyLpmm float64
	PixelSizeMM   float64
	PatternSize   int
	CheckerSize   int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Fitter:   loadFitterConfig(),
		Stimulus: loadStimulusConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadFitterConfig() FitterConfig {
	return FitterConfig{
		GuessRate:     getEnvFloatOrDefault("FIT_GUESS_RATE", 0),
		LapseRate:     getEnvFloatOrDefault("FIT_LAPSE_RATE", 0.02),
		InitialScale:  getEnvFloatOrDefault("FIT_INITIAL_SCALE", 10),
		MaxIterations: getEnvIntOrDefault("FIT_MAX_ITERATIONS", 2000),
		MaxRuntime:    getEnvDurationOrDefault("FIT_MAX_RUNTIME", 5*time.Second),
	}
}

func loadStimulusConfig() StimulusConfig {
	return StimulusConfig{
		FrequencyLpmm: getEnvFloatOrDefault("MTF_FREQUENCY_LPMM", 44.25),
		PixelSizeMM:   getEnvFloatOrDefault("MTF_PIXEL_SIZE_MM", 0.005649806841172989),
		PatternSize:   getEnvIntOrDefault("PATTERN_SIZE", 800),
		CheckerSize:   getEnvIntOrDefault("PATTERN_CHECKER_SIZE", 20),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Fitter.GuessRate < 0 || config.Fitter.LapseRate < 0 ||
		config.Fitter.GuessRate+config.Fitter.LapseRate >= 1 {
		return errors.ConfigInvalid("guess and lapse rates must satisfy 0 <= gamma, lambda and gamma+lambda < 1")
	}
	if config.Fitter.InitialScale <= 0 {
		return errors.ConfigInvalid("initial scale guess must be positive")
	}
	if config.Fitter.MaxIterations <= 0 {
		return errors.ConfigInvalid("max iterations must be positive")
	}
	if config.Stimulus.FrequencyLpmm <= 0 || config.Stimulus.PixelSizeMM <= 0 {
		return errors.ConfigInvalid("MTF frequency and pixel size must be positive")
	}
	return nil
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
