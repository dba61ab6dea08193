package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
	"github.com/koruva/devkit/pkg/mobile"
	"github.com/koruva/devkit/pkg/release"
)

var mobileConfigCmd = &cobra.Command{
	Use:   "mobile-config",
	Short: "Render the mobile client configuration",
	Long: `Renders the mobile client's app configuration with the current project
version and the backend endpoint from BASE_URL (or the built-in fallback).
The result is printed to stdout unless -o is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, _, err := setup()
		if err != nil {
			return err
		}

		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		bumper := &release.Bumper{Root: root, VersionFile: cfg.Release.VersionFile}
		version, err := bumper.Current()
		if err != nil {
			return err
		}

		appCfg := mobile.Default(version.String(), cfg.BaseURL)
		if err := appCfg.Validate(); err != nil {
			return err
		}

		if output == "" {
			encoded, err := appCfg.Marshal()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		}

		err = appCfg.WriteFile(output)
		if err != nil {
			return err
		}

		logger.Info().Msgf("Wrote %s", output)
		return nil
	},
}

func init() {
	mobileConfigCmd.Flags().StringP("output", "o", "", "write the configuration to this file instead of stdout")

	rootCmd.AddCommand(mobileConfigCmd)
}
