package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("S3_BUCKET_NAME", "clips")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_ACCESS_KEY_ID", "test-key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "test-secret")
}

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.NatsURL, "development runs standalone without a backbone")
	require.NotEmpty(t, cfg.DatabaseDSN)
	require.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadConfigProductionRequiresBackbone(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/chatrelay")
	t.Setenv("NATS_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "NATS_URL")
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/chatrelay")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("PORT", "80")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigParsesAllowedOrigins(t *testing.T) {
	setRequiredStorageEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, https://admin.example.com ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"https://chat.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigRequiresStorage(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("S3_ENDPOINT", "")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "S3_BUCKET_NAME")
}
