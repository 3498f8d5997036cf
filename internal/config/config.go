package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotPassword string
	Storage     StorageConfig
	Database    DatabaseConfig
}

// StorageConfig selects where decks are kept
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	SnapshotKey string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Load reads configuration from envFile (if present) and environment variables
func Load(envFile string) (*Config, error) {
	// Missing env file is fine, the environment may be set directly
	_ = godotenv.Load(envFile)

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", DriverPostgres),
			SQLitePath:  getEnv("SQLITE_PATH", "rekard.db"),
			SnapshotKey: getEnv("SNAPSHOT_KEY", "rekard.decks.v3"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "rekard"),
			User:     getEnv("DB_USER", "rekard"),
			Password: os.Getenv("DB_PASSWORD"),
		},
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required")
	}

	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER %q is not supported (use %s or %s)",
			cfg.Storage.Driver, DriverPostgres, DriverSQLite)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
