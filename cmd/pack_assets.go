package cmd

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/koruva/devkit/pkg"
)

var packAssetsCmd = &cobra.Command{
	Use:   "pack-assets archive_name content_directory",
	Short: "Recursively packs the content of the passed directory into a .kva archive",
	Long: `Pass the name of the .kva file that should be generated and a directory with
the intended contents. The archive is what the packaged binary serves its
static assets from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return eris.New("Expected 2 arguments!")
		}

		writer, err := pkg.NewKvaWriter(args[0])
		if err != nil {
			return err
		}

		err = kvaWalkDirectory(writer, args[1])
		if err != nil {
			return err
		}

		err = writer.Close()
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packAssetsCmd)
}

func kvaWalkDirectory(writer *pkg.KvaWriter, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "Failed to read dir %s", dir)
	}

	for _, entry := range entries {
		itemPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			err = writer.OpenDirectory(entry.Name())
			if err != nil {
				return err
			}

			err = kvaWalkDirectory(writer, itemPath)
			if err != nil {
				return err
			}

			err = writer.CloseDirectory()
			if err != nil {
				return err
			}
		} else {
			f, err := os.Open(itemPath)
			if err != nil {
				return eris.Wrapf(err, "Failed to open file %s", itemPath)
			}

			err = writer.WriteFile(entry.Name(), f)
			if err != nil {
				f.Close()
				return eris.Wrapf(err, "Failed to pack file %s", itemPath)
			}
			f.Close()
		}
	}

	return nil
}
