package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dashkit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Dashboard DashboardConfig
	Database  DatabaseConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DashboardConfig holds settings of the dashboard host
type DashboardConfig struct {
	Title       string
	StaticDir   string
	DownloadDir string
	Debug       bool
	// FaultAsOutput writes the fault trace into the output slot instead of answering with an error
	FaultAsOutput bool
	// Users enables basic auth when non-empty (user -> password)
	Users map[string]string
}

// DatabaseConfig holds the optional fault log database connection
type DatabaseConfig struct {
	URL           string
	RetentionDays int
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	dashboardConfig, err := loadDashboardConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dashboard configuration")
	}

	config := &Config{
		Server:    *loadServerConfig(),
		Dashboard: *dashboardConfig,
		Database:  *loadDatabaseConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8050"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDashboardConfig() (*DashboardConfig, error) {
	users, err := parseUsers(os.Getenv("DASH_USERS"))
	if err != nil {
		return nil, err
	}

	return &DashboardConfig{
		Title:         getEnvOrDefault("DASH_TITLE", "Dash"),
		StaticDir:     getEnvOrDefault("DASH_STATIC_DIR", "./dashboard"),
		DownloadDir:   getEnvOrDefault("DASH_DOWNLOAD_DIR", "./output"),
		Debug:         getEnvBoolOrDefault("DASH_DEBUG", false),
		FaultAsOutput: getEnvBoolOrDefault("DASH_FAULT_AS_OUTPUT", false),
		Users:         users,
	}, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:           os.Getenv("DATABASE_URL"),
		RetentionDays: getEnvIntOrDefault("FAULT_RETENTION_DAYS", 30),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

// parseUsers reads "alice:secret,bob:hunter2"
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return users, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, password, ok := strings.Cut(entry, ":")
		if !ok || user == "" || password == "" {
			return nil, errors.ConfigInvalid("DASH_USERS entries must look like user:password")
		}
		users[user] = password
	}
	return users, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("server port must be numeric")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Database.Enabled() && config.Database.RetentionDays <= 0 {
		return errors.ConfigInvalid("fault retention must be at least one day")
	}
	if config.Profiling.Enabled && config.Profiling.Port == config.Server.Port {
		return errors.ConfigInvalid("profiling port must differ from server port")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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
