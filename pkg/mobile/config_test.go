package mobile_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/mobile"
)

func TestBaseURLFallsBackToLocalNetwork(t *testing.T) {
	t.Setenv("BASE_URL", "")
	assert.Equal(t, "http://192.168.100.35:8000/mobile", mobile.BaseURL(""))
}

func TestBaseURLUsesConfiguredEndpoint(t *testing.T) {
	t.Setenv("BASE_URL", "")
	assert.Equal(t, "https://configured.koruva.app/mobile",
		mobile.BaseURL("https://configured.koruva.app/mobile"))
}

func TestBaseURLPrefersEnvironment(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.koruva.app/mobile")
	assert.Equal(t, "https://api.koruva.app/mobile",
		mobile.BaseURL("https://configured.koruva.app/mobile"))
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("BASE_URL", "")

	cfg := mobile.Default("1.2.3", "")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Koruva", cfg.Name)
	assert.Equal(t, "koruva", cfg.Slug)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "portrait", cfg.Orientation)
	assert.Equal(t, []string{"**/*"}, cfg.AssetBundlePatterns)
	assert.True(t, cfg.IOS.SupportsTablet)
	assert.Equal(t, "#ffffff", cfg.Android.AdaptiveIcon.BackgroundColor)
	assert.Equal(t, mobile.DefaultBaseURL, cfg.Extra.BaseURL)
}

func TestDefaultConfigCarriesConfiguredEndpoint(t *testing.T) {
	t.Setenv("BASE_URL", "")

	cfg := mobile.Default("1.0.0", "https://configured.koruva.app/mobile")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://configured.koruva.app/mobile", cfg.Extra.BaseURL)
}

func TestWriteAndLoadRoundtrip(t *testing.T) {
	t.Setenv("BASE_URL", "http://10.0.0.5:8000/mobile")

	path := filepath.Join(t.TempDir(), "app.json")
	cfg := mobile.Default("0.4.0", "")
	require.NoError(t, cfg.WriteFile(path))

	loaded, err := mobile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "http://10.0.0.5:8000/mobile", loaded.Extra.BaseURL)
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := mobile.Default("1.0.0", "")
	cfg.Extra.BaseURL = "localhost:8000"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseUrl")
}

func TestValidateRejectsMissingVersion(t *testing.T) {
	cfg := mobile.Default("1.0.0", "")
	cfg.Version = ""

	require.Error(t, cfg.Validate())
}
