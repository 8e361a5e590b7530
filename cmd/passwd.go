package cmd

import (
	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/keyring"
	"github.com/spf13/cobra"
)

func newPasswdCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the access password",
		Long: `Re-encrypts the container and its metadata under a new password.
Per-file passwords are not changed. A password cached in the keyring is
updated as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			current, err := core.ReadPassword("Enter current password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(current)

			if err := m.Load(current); err != nil {
				return err
			}

			next, err := core.ReadPasswordConfirm("Enter new password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(next)

			if err := m.ChangePassword(current, next); err != nil {
				return err
			}

			if storeID, err := m.StoreID(); err == nil {
				if updated, err := keyring.UpdatePassword(storeID, next); err != nil {
					app.Logger.Warning("failed to update keyring: %s", err)
				} else if updated {
					app.Logger.Debug("keyring password updated")
				}
			}

			if err := m.Compact(); err != nil {
				app.Logger.Warning("failed to compact metadata: %s", err)
			}

			app.Logger.Success("Password changed")
			return nil
		},
	}
}
