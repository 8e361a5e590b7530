package cmd

import (
	"fmt"

	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/spf13/cobra"
)

func newImportCommand(app *App) *cobra.Command {
	var encrypt bool

	cmd := &cobra.Command{
		Use:   "import <file> [file...]",
		Short: "Copy files into the container",
		Long: `Copies one or more files into the container and prints the id of each.
With --encrypt every file is additionally sealed under its own password.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			var filePassword []byte
			if encrypt {
				filePassword, err = GetFilePassword(true)
				if err != nil {
					return err
				}
				defer crypto.ClearBytes(filePassword)
			}

			for _, path := range args {
				id, err := m.ImportFile(cmd.Context(), path, filePassword)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				app.Logger.Success("Imported %s", path)
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&encrypt, "encrypt", "e", false, "Protect the files with an additional password")
	return cmd
}
