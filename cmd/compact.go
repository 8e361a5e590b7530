package cmd

import (
	"github.com/spf13/cobra"
)

func newCompactCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Reclaim free space in the metadata store",
		Long: `Compacts the metadata store on the external medium.
Does not require a password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Compact(); err != nil {
				return err
			}
			app.Logger.Success("Metadata compacted")
			return nil
		},
	}
}
