// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers understood by the user record store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds every setting of the API server.
type Config struct {
	AppPort string
	AppEnv  string

	DatabaseDriver string
	DatabaseDSN    string
	MongoURI       string
	MongoDatabase  string

	JWTSecret string
	TokenTTL  time.Duration

	TMDBAPIKey           string
	TMDBBaseURL          string
	TMDBOriginalLanguage string

	RedisURL    string
	RabbitMQURL string

	LogLevel  string
	LogFormat string
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Validate checks settings that have no safe default.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

const devJWTSecret = "dev_jwt_secret"

// Load reads an optional .env file, then the environment, applying defaults.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file:tottay.db?cache=shared")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "tottay")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("TOKEN_TTL", "360h")
	v.SetDefault("TMDB_API_KEY", "")
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_ORIGINAL_LANGUAGE", "hi")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// FromViper builds a Config from v without validating it.
func FromViper(v *viper.Viper) Config {
	return Config{
		AppPort:              v.GetString("APP_PORT"),
		AppEnv:               v.GetString("APP_ENV"),
		DatabaseDriver:       strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		MongoURI:             v.GetString("MONGO_URI"),
		MongoDatabase:        v.GetString("MONGO_DATABASE"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             v.GetDuration("TOKEN_TTL"),
		TMDBAPIKey:           v.GetString("TMDB_API_KEY"),
		TMDBBaseURL:          strings.TrimRight(v.GetString("TMDB_BASE_URL"), "/"),
		TMDBOriginalLanguage: v.GetString("TMDB_ORIGINAL_LANGUAGE"),
		RedisURL:             v.GetString("REDIS_URL"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}
}
