package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"adherents/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Export ExportConfig
	Sheet  SheetConfig
	Store  StoreConfig
	Server ServerConfig
	Log    LogConfig
}

// ExportConfig controls record processing and rendering
type ExportConfig struct {
	Filename     string
	BannerLabel  string
	NameLimit    int
	Location     *time.Location
	BuildWorkers int
}

// SheetConfig controls spreadsheet decoding
type SheetConfig struct {
	SheetName string
	MaxRows   int
}

// StoreConfig selects the mapping preference backend
type StoreConfig struct {
	Driver string
	DSN    string
	TTL    time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	UIPort        string
	GinMode       string
	MaxUploadMB   int
	SheetTTL      time.Duration
	ShutdownGrace time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

var storeDrivers = map[string]bool{"memory": true, "sqlite": true, "postgres": true, "redis": true}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	exportConfig, err := loadExportConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load export configuration")
	}
	config.Export = *exportConfig

	config.Sheet = *loadSheetConfig()
	config.Store = *loadStoreConfig()
	config.Server = *loadServerConfig()
	config.Log = LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadExportConfig() (*ExportConfig, error) {
	tz := getEnvOrDefault("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, "TIMEZONE is not a known location", err)
	}

	return &ExportConfig{
		Filename:     getEnvOrDefault("EXPORT_FILENAME", "adherent.csv"),
		BannerLabel:  getEnvOrDefault("EXPORT_BANNER_LABEL", "Base de données"),
		NameLimit:    getEnvIntOrDefault("NAME_LENGTH_LIMIT", 32),
		Location:     loc,
		BuildWorkers: getEnvIntOrDefault("BUILD_WORKERS", 4),
	}, nil
}

func loadSheetConfig() *SheetConfig {
	return &SheetConfig{
		SheetName: getEnvOrDefault("SHEET_NAME", ""),
		MaxRows:   getEnvIntOrDefault("MAX_ROWS", 0),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", "memory")),
		DSN:    getEnvOrDefault("STORE_DSN", ""),
		TTL:    getEnvDurationOrDefault("STORE_TTL", 0),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		UIPort:        getEnvOrDefault("UI_PORT", "8081"),
		GinMode:       getEnvOrDefault("GIN_MODE", "release"),
		MaxUploadMB:   getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		SheetTTL:      getEnvDurationOrDefault("SHEET_TTL", 30*time.Minute),
		ShutdownGrace: getEnvDurationOrDefault("SHUTDOWN_GRACE", 10*time.Second),
	}
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Export.Filename) == "" {
		return errors.ConfigInvalid("EXPORT_FILENAME must not be empty")
	}
	if config.Export.NameLimit <= 0 {
		return errors.ConfigInvalid("NAME_LENGTH_LIMIT must be positive")
	}
	if config.Export.BuildWorkers <= 0 {
		return errors.ConfigInvalid("BUILD_WORKERS must be positive")
	}
	if !storeDrivers[config.Store.Driver] {
		return errors.ConfigInvalid("STORE_DRIVER must be one of memory, sqlite, postgres, redis")
	}
	if config.Store.Driver != "memory" && config.Store.DSN == "" {
		return errors.ConfigInvalid("STORE_DSN is required for store driver " + config.Store.Driver)
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
