package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
	"github.com/koruva/devkit/pkg/bundle"
	"github.com/koruva/devkit/pkg/release"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Package the application as a self-contained executable",
	Long: `Builds the distributable package, embeds it together with a pinned
runtime into a platform executable and renames the result to carry the
current version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, ctx, err := setup()
		if err != nil {
			return err
		}

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		packager := &bundle.Packager{
			Root: root,
			Cfg: bundle.EmbedConfig{
				Project:        cfg.Bundle.Project,
				RuntimeVersion: cfg.Bundle.RuntimeVersion,
				Isolated:       cfg.Bundle.Isolated,
				ExposeMetadata: cfg.Bundle.ExposeMetadata,
				DistDir:        cfg.Bundle.DistDir,
				Tool:           cfg.Bundle.EmbedTool,
			},
			Bumper: &release.Bumper{
				Root:        root,
				VersionFile: cfg.Release.VersionFile,
				ExtraFiles:  cfg.Release.BumpFiles,
			},
			Runner: &release.ExecRunner{Dir: root},
			Log:    logger,
		}

		artifact, err := packager.Run(ctx)
		if err != nil {
			return err
		}

		logger.Info().Msgf("Built %s", artifact)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}
