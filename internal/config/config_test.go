package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "curalink", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.False(t, cfg.StrictBooking)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_EXPIRES_IN", "3600")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STRICT_BOOKING", "true")
	t.Setenv("S3_BUCKET", "reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.True(t, cfg.StrictBooking)
	assert.Equal(t, "reports", cfg.S3Bucket)
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load()
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	cfg := &Config{MongoURI: "m", JWTSecret: "s", JWTExpiresIn: 0, Env: "development"}
	assert.ErrorContains(t, cfg.Validate(), "JWT_EXPIRES_IN")

	cfg.JWTExpiresIn = 60
	cfg.Env = "staging"
	assert.ErrorContains(t, cfg.Validate(), "ENV")

	cfg.Env = "production"
	assert.NoError(t, cfg.Validate())
}
