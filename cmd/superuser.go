package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
	"github.com/koruva/devkit/pkg/release"
)

var superuserCmd = &cobra.Command{
	Use:   "superuser",
	Short: "Create the bootstrap admin account",
	Long: `Creates the Django superuser non-interactively. The credentials come from
the flags or, if omitted, the configured defaults. They are handed to the
management command through its environment and never logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, ctx, err := setup()
		if err != nil {
			return err
		}

		email, err := cmd.Flags().GetString("email")
		if err != nil {
			return err
		}
		if email == "" {
			email = cfg.Superuser.Email
		}

		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return err
		}
		if password == "" {
			password = cfg.Superuser.Password
		}

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		runner := &release.ExecRunner{Dir: root}
		logger.Info().Msgf("Creating superuser %s", email)
		return runner.RunEnv(ctx, []string{
			"DJANGO_SUPERUSER_EMAIL=" + email,
			"DJANGO_SUPERUSER_PASSWORD=" + password,
		}, "uv", "run", "manage.py", "createsuperuser", "--noinput", "--email", email)
	},
}

func init() {
	superuserCmd.Flags().String("email", "", "superuser email (defaults to the configured value)")
	superuserCmd.Flags().String("password", "", "superuser password (defaults to the configured value)")

	rootCmd.AddCommand(superuserCmd)
}
