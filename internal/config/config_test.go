package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/config"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	cfg := config.FromViper(v)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 360*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDBBaseURL)
	assert.Equal(t, "hi", cfg.TMDBOriginalLanguage)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "MONGO")
	t.Setenv("TMDB_BASE_URL", "http://localhost:9999/3/")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverMongo, cfg.DatabaseDriver)
	assert.Equal(t, "http://localhost:9999/3", cfg.TMDBBaseURL)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg := config.FromViper(v)
	cfg.DatabaseDriver = "oracle"
	assert.ErrorContains(t, cfg.Validate(), "unsupported DATABASE_DRIVER")

	cfg = config.FromViper(v)
	cfg.AppEnv = "production"
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}
