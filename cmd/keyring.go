package cmd

import (
	"errors"
	"fmt"

	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/keyring"
	"github.com/spf13/cobra"
)

func newKeyringCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the access password cached in the OS keyring",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Verify and store the access password",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := app.newManager()
				if err != nil {
					return err
				}
				defer m.Close()

				password, err := core.ReadPassword("Enter password: ")
				if err != nil {
					return err
				}
				defer crypto.ClearBytes(password)

				if !m.VerifyPassword(password) {
					return core.ErrAuthentication
				}

				storeID, err := m.GetOrCreateStoreID()
				if err != nil {
					return err
				}
				if err := keyring.SavePassword(storeID, password); err != nil {
					return fmt.Errorf("failed to save to keyring: %w", err)
				}
				app.Logger.Success("Password saved to keyring")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the cached access password",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := app.newManager()
				if err != nil {
					return err
				}
				defer m.Close()

				storeID, err := m.StoreID()
				if err != nil || keyring.DeletePassword(storeID) != nil {
					app.Logger.Info("No password stored in keyring")
					return nil
				}
				app.Logger.Success("Password removed from keyring")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether a password is cached",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := app.newManager()
				if err != nil {
					return err
				}
				defer m.Close()

				storeID, err := m.StoreID()
				if err != nil && !errors.Is(err, core.ErrNotInitialized) {
					return err
				}
				if storeID != "" && keyring.HasPassword(storeID) {
					fmt.Fprintln(cmd.OutOrStdout(), "Password: stored in keyring")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Password: not stored")
				}
				return nil
			},
		},
	)

	return cmd
}
