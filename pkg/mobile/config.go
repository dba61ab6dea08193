// Package mobile builds the static configuration object consumed by the
// mobile client's build toolchain. The record is written once at build time
// and never mutated afterwards.
package mobile

import (
	"encoding/json"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the local-network fallback used when BASE_URL is unset.
// It has to point at a reachable backend or the mobile client cannot function.
const DefaultBaseURL = "http://192.168.100.35:8000/mobile"

type Splash struct {
	Image           string `json:"image"`
	ResizeMode      string `json:"resizeMode"`
	BackgroundColor string `json:"backgroundColor"`
}

type IOS struct {
	SupportsTablet bool `json:"supportsTablet"`
}

type AdaptiveIcon struct {
	ForegroundImage string `json:"foregroundImage"`
	BackgroundColor string `json:"backgroundColor"`
}

type Android struct {
	AdaptiveIcon AdaptiveIcon `json:"adaptiveIcon"`
}

type Web struct {
	Favicon string `json:"favicon"`
}

type Extra struct {
	BaseURL string `json:"baseUrl"`
}

// Config mirrors the app configuration object the mobile toolchain expects.
type Config struct {
	Name                string   `json:"name"`
	Slug                string   `json:"slug"`
	Scheme              string   `json:"scheme"`
	Version             string   `json:"version"`
	Orientation         string   `json:"orientation"`
	Icon                string   `json:"icon"`
	UserInterfaceStyle  string   `json:"userInterfaceStyle"`
	NewArchEnabled      bool     `json:"newArchEnabled"`
	Splash              Splash   `json:"splash"`
	AssetBundlePatterns []string `json:"assetBundlePatterns"`
	IOS                 IOS      `json:"ios"`
	Android             Android  `json:"android"`
	Web                 Web      `json:"web"`
	Extra               Extra    `json:"extra"`
}

// BaseURL returns the backend endpoint for the mobile client: the value of
// the BASE_URL environment variable when set, the configured endpoint
// otherwise, the local-network fallback when neither is present.
func BaseURL(configured string) string {
	if value := os.Getenv("BASE_URL"); value != "" {
		return value
	}
	if configured != "" {
		return configured
	}
	return DefaultBaseURL
}

// Default constructs the config record for the given app version and backend
// endpoint.
func Default(version, baseURL string) Config {
	return Config{
		Name:               "Koruva",
		Slug:               "koruva",
		Scheme:             "koruva",
		Version:            version,
		Orientation:        "portrait",
		Icon:               "./assets/icon.png",
		UserInterfaceStyle: "automatic",
		NewArchEnabled:     true,
		Splash: Splash{
			Image:           "./assets/splash-icon.png",
			ResizeMode:      "contain",
			BackgroundColor: "#ffffff",
		},
		AssetBundlePatterns: []string{"**/*"},
		IOS:                 IOS{SupportsTablet: true},
		Android: Android{
			AdaptiveIcon: AdaptiveIcon{
				ForegroundImage: "./assets/adaptive-icon.png",
				BackgroundColor: "#ffffff",
			},
		},
		Web:   Web{Favicon: "./assets/favicon.png"},
		Extra: Extra{BaseURL: BaseURL(baseURL)},
	}
}

// Validate checks the deployment-configuration invariants the mobile build
// depends on.
func (c *Config) Validate() error {
	if c.Name == "" || c.Slug == "" {
		return eris.New("name and slug must not be empty")
	}

	if c.Version == "" {
		return eris.New("version must not be empty")
	}

	parsed, err := url.Parse(c.Extra.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return eris.Errorf("extra.baseUrl %s is not an absolute http(s) URL", c.Extra.BaseURL)
	}

	return nil
}

// Marshal renders the config as indented JSON with a stable field order.
func (c *Config) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode mobile config")
	}

	return append(data, '\n'), nil
}

// WriteFile validates the config and writes it to the given path.
func (c *Config) WriteFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// Load reads and validates an existing config file.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "failed to read %s", path)
	}

	err = json.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, eris.Wrapf(err, "failed to parse %s", path)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
