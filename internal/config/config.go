package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dev-only signing material; production must override via environment.
const (
	devAccessSecret  = "dHJhdmVsYm9hcmQtYWNjZXNzLWRldi1zZWNyZXQtY2hhbmdlLW1l"
	devRefreshSecret = "dHJhdmVsYm9hcmQtcmVmcmVzaC1kZXYtc2VjcmV0LWNoYW5nZS1tZQ=="
)

type Config struct {
	Port       string
	DBAdapter  string
	SQLiteFile string
	LogLevel   string
	// Token signing material, decoded from base64 at startup and immutable
	// afterwards. Access and refresh tokens use independent secrets.
	AccessSecret    []byte
	AccessValidity  time.Duration
	RefreshSecret   []byte
	RefreshValidity time.Duration
	// PostgreSQL connection settings
	PostgresDSN      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// BuildPostgresDSN constructs a PostgreSQL DSN from individual components or returns the provided DSN
func (c *Config) BuildPostgresDSN() (string, error) {
	// If DSN is provided directly, use it
	if c.PostgresDSN != "" {
		return c.PostgresDSN, nil
	}

	// Build DSN from individual components
	if c.PostgresHost == "" {
		return "", errors.New("POSTGRES_HOST or POSTGRES_DSN must be set")
	}
	if c.PostgresUser == "" {
		return "", errors.New("POSTGRES_USER must be set")
	}
	if c.PostgresDB == "" {
		return "", errors.New("POSTGRES_DB must be set")
	}

	port := c.PostgresPort
	if port == "" {
		port = "5432"
	}

	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable" // Default to disable for local development
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.PostgresHost, port, c.PostgresUser, c.PostgresDB, sslMode)

	if c.PostgresPassword != "" {
		dsn += " password=" + c.PostgresPassword
	}

	return dsn, nil
}

func decodeSecret(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be base64 encoded: %w", name, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%s must not be empty", name)
	}
	return b, nil
}

func parseValidity(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

func New() (*Config, error) {
	c := &Config{
		Port:       getenv("PORT", "8080"),
		DBAdapter:  getenv("DB_ADAPTER", "postgres"), // Default to postgres
		SQLiteFile: getenv("SQLITE_FILE", "./data/travelboard.db"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		// PostgreSQL settings
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		PostgresHost:     getenv("POSTGRES_HOST", getenv("DB_HOST", "localhost")),
		PostgresPort:     getenv("POSTGRES_PORT", getenv("DB_PORT", "5432")),
		PostgresUser:     getenv("POSTGRES_USER", getenv("DB_USER", "travelboard")),
		PostgresPassword: getenv("POSTGRES_PASSWORD", getenv("DB_PASSWORD", "travelboard")),
		PostgresDB:       getenv("POSTGRES_DB", getenv("DB_NAME", "travelboard")),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", getenv("DB_SSLMODE", "disable")),
	}

	accessSecret := getenv("JWT_ACCESS_SECRET", devAccessSecret)
	refreshSecret := getenv("JWT_REFRESH_SECRET", devRefreshSecret)

	var err error
	if c.AccessSecret, err = decodeSecret("JWT_ACCESS_SECRET", accessSecret); err != nil {
		return nil, err
	}
	if c.RefreshSecret, err = decodeSecret("JWT_REFRESH_SECRET", refreshSecret); err != nil {
		return nil, err
	}
	if c.AccessValidity, err = parseValidity("JWT_ACCESS_VALIDITY", getenv("JWT_ACCESS_VALIDITY", "30m")); err != nil {
		return nil, err
	}
	if c.RefreshValidity, err = parseValidity("JWT_REFRESH_VALIDITY", getenv("JWT_REFRESH_VALIDITY", "336h")); err != nil {
		return nil, err
	}

	// Validate PostgreSQL configuration if using postgres
	if c.DBAdapter == "postgres" {
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres configuration error: %w", err)
		}
		c.PostgresDSN = dsn
	}

	if c.DBAdapter == "sqlite" {
		// ensure sqlite file path is not empty
		if c.SQLiteFile == "" {
			return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	}

	// Refuse the baked-in dev secrets in production
	env := strings.ToLower(getenv("ENV", ""))
	if env == "production" || env == "prod" {
		if accessSecret == devAccessSecret || refreshSecret == devRefreshSecret {
			return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set in production")
		}
	}

	// normalize port
	if _, err := strconv.Atoi(c.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT: %s", c.Port)
	}

	return c, nil
}
