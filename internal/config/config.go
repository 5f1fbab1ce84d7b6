package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no path is given
const DefaultPath = "configs/config.yaml"

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout     string   `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string   `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		IdleTimeout     string   `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
		ShutdownTimeout string   `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		AllowedOrigins  []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Driver            string `yaml:"driver" env:"DB_DRIVER"`
		URL               string `yaml:"url" env:"DATABASE_URL"`
		Host              string `yaml:"host" env:"DB_HOST"`
		Port              string `yaml:"port" env:"DB_PORT"`
		User              string `yaml:"user" env:"DB_USER"`
		Password          string `yaml:"password" env:"DB_PASSWORD"`
		DBName            string `yaml:"dbname" env:"DB_NAME"`
		SSLMode           string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns      int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns      int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime   string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		ConnMaxIdleTime   string `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME"`
		HealthCheckPeriod string `yaml:"health_check_period" env:"DB_HEALTH_CHECK_PERIOD"`
		ConnectTimeout    string `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
		QueryTimeout      string `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT"`
		AutoMigrate       bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
		Seed              bool   `yaml:"seed" env:"DB_SEED"`
	} `yaml:"database"`

	Hierarchy struct {
		MaxDepth int `yaml:"max_depth" env:"HIERARCHY_MAX_DEPTH"`
	} `yaml:"hierarchy"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables.
// Environment variables always win over the YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if configPath == "" {
		configPath = DefaultPath
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env is optional; real deployments set variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8000"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "10s"
	config.Server.IdleTimeout = "120s"
	config.Server.ShutdownTimeout = "10s"
	config.Server.AllowedOrigins = []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:8000",
		"https://interactive-knowledge-map.vercel.app",
	}

	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "knowledgemap"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.ConnMaxIdleTime = "10m"
	config.Database.HealthCheckPeriod = "1m"
	config.Database.ConnectTimeout = "10s"
	config.Database.QueryTimeout = "30s"
	config.Database.AutoMigrate = true

	config.Hierarchy.MaxDepth = 64

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.URL == "" && config.Database.Host == "" {
			return fmt.Errorf("database host or url is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max_open_conns must be positive")
	}
	if config.Database.MaxIdleConns < 0 || config.Database.MaxIdleConns > config.Database.MaxOpenConns {
		return fmt.Errorf("database max_idle_conns must be between 0 and max_open_conns")
	}

	if config.Hierarchy.MaxDepth <= 0 {
		return fmt.Errorf("hierarchy max_depth must be positive")
	}

	durations := map[string]string{
		"server.read_timeout":          config.Server.ReadTimeout,
		"server.write_timeout":         config.Server.WriteTimeout,
		"server.idle_timeout":          config.Server.IdleTimeout,
		"server.shutdown_timeout":      config.Server.ShutdownTimeout,
		"database.conn_max_lifetime":   config.Database.ConnMaxLifetime,
		"database.conn_max_idle_time":  config.Database.ConnMaxIdleTime,
		"database.health_check_period": config.Database.HealthCheckPeriod,
		"database.connect_timeout":     config.Database.ConnectTimeout,
		"database.query_timeout":       config.Database.QueryTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Mode) == "production"
}

// GetPostgresConnectionString returns postgres connection string.
// DATABASE_URL takes precedence over the individual fields.
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
