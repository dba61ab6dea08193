// Package config holds the tool configuration. It is loaded once at startup
// from defaults, an optional devkit.toml and KORUVA_* environment variables,
// then passed to the pipelines; nothing reads the environment after that.
package config

import (
	"net/url"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Debug   bool   `default:"false" usage:"Force debug logging (deployment builds always run with DEBUG off)"`
	BaseURL string `env:"BASE_URL" default:"http://192.168.100.35:8000/mobile" usage:"Backend endpoint baked into the mobile config"`
	Log     struct {
		Level string `default:"info"`
	}
	Superuser struct {
		Email    string `default:"admin@localhost" usage:"Bootstrap superuser email"`
		Password string `default:"admin" usage:"Bootstrap superuser password"`
	}
	Release struct {
		VersionFile string   `default:"pyproject.toml" usage:"Canonical file the current version is read from"`
		BumpFiles   []string `usage:"Additional files whose version references get rewritten on bump"`
		Remote      string   `default:"origin" usage:"Git remote commits and tags are pushed to"`
	}
	Bundle struct {
		Project        string `default:"koruva" usage:"Project name embedded in the binary artifact"`
		RuntimeVersion string `default:"3.13" usage:"Runtime version the embedding tool bundles"`
		Isolated       bool   `default:"true" usage:"Run the embedded runtime in full isolation"`
		ExposeMetadata bool   `default:"true" usage:"Expose project metadata commands on the packaged binary"`
		DistDir        string `default:"dist" usage:"Directory the package manager writes distributables to"`
		EmbedTool      string `default:".tools/pyapp" usage:"Path to the binary-embedding tool"`
	}
	Image struct {
		Name string `default:"koruva" usage:"Container image name (tagged with the version and latest)"`
	}
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object
func Loader() (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          "KORUVA",
		AllowUnknownFields: true,
		SkipFlags:          true,
		Files:              []string{"devkit.toml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load builds the config using the default loader. Most commands only need
// this one-shot form.
func Load() (*Config, error) {
	cfg, loader := Loader()
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || !parsed.IsAbs() {
		return eris.Errorf(`Invalid value for base_url: %s (must be an absolute URL)`, cfg.BaseURL)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.Release.VersionFile == "" {
		return eris.New("release.version_file must not be empty")
	}

	if cfg.Image.Name == "" {
		return eris.New("image.name must not be empty")
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
