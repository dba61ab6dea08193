package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
	"github.com/koruva/devkit/pkg/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release <major|minor|patch|version>",
	Short: "Bump the version, regenerate the changelog and publish the release",
	Long: `Bumps the tracked version references, regenerates CHANGELOG.md from the
git history and, if anything changed, commits the result, tags it with
v<version> and pushes both to the configured remote. A clean tree still
gets pushed so a re-run after a failed push recovers without a new commit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, ctx, err := setup()
		if err != nil {
			return err
		}

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		pipeline := release.New(
			root,
			cfg.Release.Remote,
			cfg.Release.VersionFile,
			cfg.Release.BumpFiles,
			&release.ExecRunner{Dir: root},
			logger,
		)

		return pipeline.Run(ctx, args[0])
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}
