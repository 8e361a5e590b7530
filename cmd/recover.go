package cmd

import (
	"github.com/spf13/cobra"
)

func newRecoverCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <id> [id...]",
		Short: "Restore files from the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			for _, id := range args {
				if err := m.Recover(id); err != nil {
					return err
				}
				app.Logger.Success("Recovered %s", id)
			}
			return nil
		},
	}
}
