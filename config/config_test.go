package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/registration?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, key := range []string{
		"SERVER_PORT", "IMPORT_MAX_UPLOAD_BYTES", "IMPORT_DEFAULT_RATING",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
		"GOOGLE_SERVICE_ACCOUNT_JSON", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.EqualValues(t, 10<<20, cfg.ImportMaxUploadBytes)
	assert.Equal(t, 1000, cfg.ImportDefaultRating)
	assert.False(t, cfg.R2Enabled())
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsBadPort(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "abc")
	_, err = Load()
	assert.ErrorContains(t, err, "SERVER_PORT")
}

func TestLoadImportSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("IMPORT_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("IMPORT_DEFAULT_RATING", "1500")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.EqualValues(t, 2048, cfg.ImportMaxUploadBytes)
	assert.Equal(t, 1500, cfg.ImportDefaultRating)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadR2AllOrNothing(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("R2_ACCOUNT_ID", "acc")

	_, err := Load()
	assert.ErrorContains(t, err, "partially configured")

	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://cdn.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.R2Enabled())
}
