package cmd

import (
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/spf13/cobra"
)

func newInitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new container bound to this machine",
		Long: `Creates the container file and its encrypted metadata on the external
medium. Prompts for the access password unless VAULTFS_PASSWORD is set.
The password is not stored anywhere, you must remember it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			password, err := GetPasswordForInit()
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			if err := m.Initialize(password); err != nil {
				return err
			}

			app.Logger.Success("Container created: %s", m.ContainerPath())
			return nil
		},
	}
}
