package cmd

import (
	"github.com/spf13/cobra"
)

func newRemoveCommand(app *App) *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "rm <id> [id...]",
		Short: "Move files to the trash, or delete them for good",
		Long: `Without flags the files are moved to the trash and can be recovered.
With --permanent their bytes are cut out of the container and the space is
reclaimed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			for _, id := range args {
				if permanent {
					if err := m.DeletePermanent(cmd.Context(), id); err != nil {
						return err
					}
					app.Logger.Success("Deleted %s", id)
					continue
				}
				if err := m.DeleteSoft(id); err != nil {
					return err
				}
				app.Logger.Success("Moved %s to trash", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&permanent, "permanent", "p", false, "Remove the bytes from the container")
	return cmd
}
