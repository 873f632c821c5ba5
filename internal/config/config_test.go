package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("PORT", "9090")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite://inkwell.db", cfg.DB_URL)
	assert.Equal(t, 480*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "http://localhost:9090", cfg.PublicBaseURL)
	assert.Equal(t, int64(5<<20), cfg.ThumbnailMaxBytes)
	assert.Equal(t, defaultOrigins, cfg.CorsConfig.AllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRES_MINUTES", "15")
	t.Setenv("PUBLIC_BASE_URL", "https://blog.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("THUMBNAIL_MAX_BYTES", "not-a-number")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "https://blog.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CorsConfig.AllowedOrigins)
	assert.Equal(t, int64(5<<20), cfg.ThumbnailMaxBytes)
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("ENV", "production")

	cfg := Load()
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())

	cfg.TokenTTL = 0
	assert.Error(t, cfg.Validate())
}
