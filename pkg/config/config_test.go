package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "http://192.168.100.35:8000/mobile", cfg.BaseURL)
	assert.Equal(t, "admin@localhost", cfg.Superuser.Email)
	assert.Equal(t, "admin", cfg.Superuser.Password)
	assert.Equal(t, "pyproject.toml", cfg.Release.VersionFile)
	assert.Equal(t, "origin", cfg.Release.Remote)
	assert.Equal(t, "koruva", cfg.Image.Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KORUVA_BASE_URL", "https://api.koruva.app/mobile")
	t.Setenv("KORUVA_DEBUG", "true")
	t.Setenv("KORUVA_SUPERUSER_EMAIL", "ops@koruva.app")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.koruva.app/mobile", cfg.BaseURL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "ops@koruva.app", cfg.Superuser.Email)
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	t.Setenv("KORUVA_BASE_URL", "not-a-url")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("KORUVA_LOG_LEVEL", "verbose")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
