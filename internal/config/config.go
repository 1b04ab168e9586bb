// Package config loads service settings from defaults, an optional YAML file
// and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSecretKey = "change-me-in-production"

// Config is the full service configuration.
type Config struct {
	Env       string          `yaml:"env"`
	LogLevel  string          `yaml:"log_level"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	SMTP      SMTPConfig      `yaml:"smtp"`
}

// HTTPConfig controls the Fiber listener.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects and parameterises the GORM dialector.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	Debug    bool   `yaml:"debug"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	SecretKey   string        `yaml:"secret_key"`
	Issuer      string        `yaml:"issuer"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

// RedisConfig is optional; an empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig bounds requests per client per window.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// SMTPConfig is optional; an empty Host makes notifications log-only.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Env:      "development",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port: 8000,
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "tidytasks.db",
			Host:    "localhost",
			Name:    "tidytasks",
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			SecretKey:   defaultSecretKey,
			Issuer:      "tidytasks",
			TokenExpiry: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		SMTP: SMTPConfig{
			Port:   587,
			Sender: "TidyTasks <no-reply@tidytasks.local>",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Database.applyDriverDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTP.Port = getEnvInt("HTTP_PORT", cfg.HTTP.Port)

	cfg.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", cfg.Database.Driver))
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.Debug = getEnvBool("DB_DEBUG", cfg.Database.Debug)

	cfg.JWT.SecretKey = getEnv("SECRET_KEY", cfg.JWT.SecretKey)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", cfg.JWT.Issuer)
	if minutes := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 0); minutes > 0 {
		cfg.JWT.TokenExpiry = time.Duration(minutes) * time.Minute
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.Sender = getEnv("SMTP_SENDER", cfg.SMTP.Sender)
}

// applyDriverDefaults fills the port and user left unset for the selected
// server driver.
func (d *DatabaseConfig) applyDriverDefaults() {
	switch d.Driver {
	case "postgres":
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.User == "" {
			d.User = "postgres"
		}
	case "mysql":
		if d.Port == 0 {
			d.Port = 3306
		}
		if d.User == "" {
			d.User = "root"
		}
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("secret key must not be empty")
	}
	if c.IsProduction() && c.JWT.SecretKey == defaultSecretKey {
		return errors.New("SECRET_KEY must be set in production")
	}
	if c.JWT.TokenExpiry <= 0 {
		return errors.New("token expiry must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
