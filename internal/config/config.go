package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Seeder  SeederConfig
	Weather WeatherConfig
	Session SessionConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration for the place directory
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SeederConfig holds settings for the GeoNames place import
type SeederConfig struct {
	DataDir       string
	MinPopulation int
}

// WeatherConfig holds settings for the forecast provider and the widget
type WeatherConfig struct {
	// APIKey is sent as the key query parameter. An empty key is not rejected
	// here; the provider refuses the request instead.
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	DefaultLocation string
	Locale          string
}

// SessionConfig controls how long an idle widget session stays mounted
type SessionConfig struct {
	IdleTTL time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	// SettleWait bounds how long the page handler waits for an in-flight fetch.
	SettleWait time.Duration
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		if c.Name != "" && c.Name != "forecast" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "forecast"),
			Password: getEnv("DB_PASSWORD", "forecast_password"),
			Name:     getEnv("DB_NAME", "forecast"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:       getEnv("APP_PORT", "8080"),
			SettleWait: getEnvAsDuration("PAGE_SETTLE_WAIT", 3*time.Second),
		},
		Seeder: SeederConfig{
			DataDir:       getEnv("DATA_DIR", "data"),
			MinPopulation: getEnvAsInt("SEEDER_MIN_POPULATION", 15000),
		},
		Weather: WeatherConfig{
			APIKey:          os.Getenv("WEATHER_API_KEY"),
			BaseURL:         strings.TrimRight(getEnv("WEATHER_API_URL", "https://api.weatherapi.com/v1"), "/"),
			Timeout:         getEnvAsDuration("WEATHER_API_TIMEOUT", 10*time.Second),
			DefaultLocation: getEnv("WEATHER_DEFAULT_LOCATION", "Pune"),
			Locale:          getEnv("WEATHER_LOCALE", "en-US"),
		},
		Session: SessionConfig{
			IdleTTL: getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
