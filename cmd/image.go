package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
	"github.com/koruva/devkit/pkg/bundle"
	"github.com/koruva/devkit/pkg/release"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Build the deployment container image",
	Long: `Syncs the pinned dependencies and builds the container image with debug
behavior disabled. The image is tagged with the current version and latest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, ctx, err := setup()
		if err != nil {
			return err
		}

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		builder := &bundle.ImageBuilder{
			Root: root,
			Name: cfg.Image.Name,
			Bumper: &release.Bumper{
				Root:        root,
				VersionFile: cfg.Release.VersionFile,
				ExtraFiles:  cfg.Release.BumpFiles,
			},
			Runner: &release.ExecRunner{Dir: root},
			Log:    logger,
		}

		return builder.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)
}
