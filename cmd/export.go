package cmd

import (
	"context"
	"errors"

	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/spf13/cobra"
)

func newExportCommand(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <id> [dest]",
		Short: "Write a stored file to disk",
		Long: `Writes the plaintext of a stored file to dest and restores its permission
bits and timestamps. With --dir the file is written into that directory under
its stored name. Prompts for the file password when the file has one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (dir != "") {
				return errors.New("give either a destination or --dir")
			}

			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			id := args[0]
			export := func(ctx context.Context, filePassword []byte) (string, error) {
				if dir != "" {
					return m.ExportToDir(ctx, id, dir, filePassword)
				}
				return args[1], m.ExportFile(ctx, id, args[1], filePassword)
			}

			dest, err := export(cmd.Context(), nil)
			if errors.Is(err, core.ErrPasswordRequired) {
				filePassword, perr := GetFilePassword(false)
				if perr != nil {
					return perr
				}
				defer crypto.ClearBytes(filePassword)
				dest, err = export(cmd.Context(), filePassword)
			}
			if err != nil {
				return err
			}

			app.Logger.Success("Exported %s to %s", id, dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Write into this directory under the stored name")
	return cmd
}
