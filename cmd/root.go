// Package cmd bundles the CLI surface of the Koruva developer tool: the
// recipe runner, the release and packaging pipelines, the mobile config
// renderer and a few cross-platform helpers recipes rely on.
package cmd

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg/buildsys"
	"github.com/koruva/devkit/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "tool",
	Short: "Developer tools for Koruva",
	Long: `This command bundles the tools used to develop and release Koruva.
This includes the recipe runner, the release pipeline, binary packaging,
the container image build and the mobile client configuration.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// setup loads the configuration and builds a logger-carrying context.
// Every command goes through here so the environment is read exactly once.
func setup() (*config.Config, zerolog.Logger, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	level := cfg.LogLevel()
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(NewConsoleWriter()).Level(level)
	ctx := buildsys.WithLogger(context.Background(), &logger)

	return cfg, logger, ctx, nil
}
