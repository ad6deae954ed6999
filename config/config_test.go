package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Empty(t, cfg.Transcription.APIKey)
	require.Len(t, cfg.Generation.Providers, 2)
	assert.Equal(t, "openai", cfg.Generation.Providers[0].Name)
	assert.Equal(t, "openrouter", cfg.Generation.Providers[1].Name)
	assert.False(t, cfg.Pipeline.ProvisionalVoiced)
}

func TestLoadProviderKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	t.Setenv("PIPELINE_PROVISIONAL_VOICED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Transcription.APIKey)
	assert.Equal(t, "sk-test", cfg.Generation.Providers[0].APIKey)
	assert.Equal(t, "or-test", cfg.Generation.Providers[1].APIKey)
	assert.True(t, cfg.Pipeline.ProvisionalVoiced)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("AWS_S3_ARTIFACTS_BUCKET", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.DSN())
	c.URL = "postgres://x"
	assert.Equal(t, "postgres://x", c.DSN())
}
