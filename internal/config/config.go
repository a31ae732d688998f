// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                           string        `mapstructure:"APP_ENV"`
	Port                          string        `mapstructure:"PORT"`
	DBDriver                      string        `mapstructure:"DB_DRIVER"`
	DBHost                        string        `mapstructure:"DB_HOST"`
	DBPort                        string        `mapstructure:"DB_PORT"`
	DBUser                        string        `mapstructure:"DB_USER"`
	DBPassword                    string        `mapstructure:"DB_PASSWORD"`
	DBName                        string        `mapstructure:"DB_NAME"`
	DBSSLMode                     string        `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns                int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBSchemaMode                  string        `mapstructure:"DB_SCHEMA_MODE"`
	// DBAutoMigrateAllowDestructive permits DB_SCHEMA_MODE=auto in production.
	DBAutoMigrateAllowDestructive bool          `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	RedisURL                      string        `mapstructure:"REDIS_URL"`
	AllowedOrigins                string        `mapstructure:"ALLOWED_ORIGINS"`
	BcryptCost                    int           `mapstructure:"BCRYPT_COST"`
	SessionLifetime               time.Duration `mapstructure:"SESSION_LIFETIME"`
	SessionCookieName             string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure           bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	RateLimitPerMinute            int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	TracingEnabled                bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter               string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint                  string        `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio            float64       `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// Supported values of DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// LoadConfig loads application configuration from .env, config.yml and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// We intentionally ignore this error as the config file may not exist
	_ = viper.ReadInConfig()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "sns_user")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "sns_dso")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_SCHEMA_MODE", "sql")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "*")
	viper.SetDefault("BCRYPT_COST", 12)
	viper.SetDefault("SESSION_LIFETIME", "24h")
	viper.SetDefault("SESSION_COOKIE_NAME", "sns_session")
	viper.SetDefault("SESSION_COOKIE_SECURE", false)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBSchemaMode = strings.ToLower(strings.TrimSpace(config.DBSchemaMode))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IsLocal reports whether the service runs on a developer machine or under
// tests, where request throttling is switched off.
func (c *Config) IsLocal() bool {
	switch c.Env {
	case "", "development", "dev", "test":
		return true
	}
	return false
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, mysql or sqlite)", c.DBDriver)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if c.SessionLifetime <= 0 {
		return errors.New("SESSION_LIFETIME must be positive")
	}
	if c.SessionCookieName == "" {
		return errors.New("SESSION_COOKIE_NAME is required")
	}

	if c.IsProduction() {
		if c.DBDriver != DriverSQLite && c.DBPassword == "" {
			return errors.New("DB_PASSWORD is required in production")
		}
		if !c.SessionCookieSecure {
			return errors.New("SESSION_COOKIE_SECURE must be enabled in production")
		}
		if c.BcryptCost < 10 {
			log.Println("WARNING: BCRYPT_COST below 10 in production weakens stored password hashes.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
