package cmd

import (
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
)

var installToolsCmd = &cobra.Command{
	Use:   "install-tools",
	Short: "Installs the Go tools tracked in tools.go into .tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		return pkg.InstallTools()
	},
}

func init() {
	rootCmd.AddCommand(installToolsCmd)
}
