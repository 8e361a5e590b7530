package cmd

import (
	"errors"
	"fmt"

	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/spf13/cobra"
)

func newDiffCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <id> <local-file>",
		Short: "Compare a stored file with a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			id, local := args[0], args[1]
			out, err := m.Diff(cmd.Context(), id, local, nil)
			if errors.Is(err, core.ErrPasswordRequired) {
				filePassword, perr := GetFilePassword(false)
				if perr != nil {
					return perr
				}
				defer crypto.ClearBytes(filePassword)
				out, err = m.Diff(cmd.Context(), id, local, filePassword)
			}
			if err != nil {
				return err
			}

			if out == "" {
				app.Logger.Info("No differences")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
