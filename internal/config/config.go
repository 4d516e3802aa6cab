// Package config provides simplified configuration management
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the bridge service
type Config struct {
	Environment string
	Service     ServiceConfig
	Logging     LoggingConfig
	Patreon     PatreonConfig
	DBConfigs   DBConfigs
	Resolver    ResolverConfig
}

// ServiceConfig holds service-specific configuration
type ServiceConfig struct {
	Name    string
	Port    string
	Host    string
	Timeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// PatreonConfig holds credentials for the Patreon webhook and API surface
type PatreonConfig struct {
	// WebhookSecret is the pre-shared HMAC key for webhook verification
	WebhookSecret string
	// AccessToken is the static creator bearer token for the Patreon v2 API
	AccessToken string
}

// DBConfigs holds database configuration. All fields are required; startup
// aborts before the HTTP surface is exposed when any is missing.
type DBConfigs struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// ResolverConfig tunes the reverse-scan fallback
type ResolverConfig struct {
	// ScanLimit caps the number of candidates a reverse scan visits.
	// 0 means unbounded.
	ScanLimit int
}

// LoadConfig loads configuration from flags and environment variables.
// It returns an error when a required database parameter is absent.
func LoadConfig(serviceName string) (*Config, error) {
	env := getEnvOrDefault("ENVIRONMENT", "local")

	envFlag := flag.String("env", env, "Environment: local or production")
	port := flag.String("port", getEnvOrDefault("PORT", "8080"), "Service port")
	host := flag.String("host", getEnvOrDefault("HOST", "0.0.0.0"), "Host address")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	logLevel := flag.String("log-level", getDefaultLogLevel(env), "Log level")
	logFormat := flag.String("log-format", getDefaultLogFormat(env), "Log format")

	flag.Parse()

	dbConfigs, err := loadDBConfigs()
	if err != nil {
		return nil, err
	}

	scanLimit, err := parseIntOrDefault("SCAN_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment: *envFlag,
		Service: ServiceConfig{
			Name:    serviceName,
			Port:    *port,
			Host:    *host,
			Timeout: *timeout,
		},
		Logging: LoggingConfig{
			Level:  *logLevel,
			Format: *logFormat,
		},
		Patreon: PatreonConfig{
			WebhookSecret: getEnvOrDefault("PATREON_SECRET_KEY", ""),
			AccessToken:   getEnvOrDefault("PATREON_ACCESS_TOKEN_KEY", ""),
		},
		DBConfigs: dbConfigs,
		Resolver: ResolverConfig{
			ScanLimit: scanLimit,
		},
	}

	return config, nil
}

// loadDBConfigs reads the MySQL connection parameters. Every parameter is
// required: a bridge without its record store must not accept webhooks.
func loadDBConfigs() (DBConfigs, error) {
	configs := DBConfigs{
		Host:     os.Getenv("MYSQL_HOST"),
		Port:     os.Getenv("MYSQL_PORT"),
		Username: os.Getenv("MYSQL_USER"),
		Password: os.Getenv("MYSQL_PWD"),
		Database: os.Getenv("MYSQL_DB"),
	}

	missing := []string{}
	for key, value := range map[string]string{
		"MYSQL_HOST": configs.Host,
		"MYSQL_PORT": configs.Port,
		"MYSQL_USER": configs.Username,
		"MYSQL_PWD":  configs.Password,
		"MYSQL_DB":   configs.Database,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return DBConfigs{}, fmt.Errorf("missing required database configuration: %v", missing)
	}

	return configs, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return parsed, nil
}

func getDefaultLogLevel(env string) string {
	if env == "production" {
		return "warn"
	}
	return "debug"
}

func getDefaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "text"
}
