package cmd

import (
	"errors"

	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/spf13/cobra"
)

func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check a password against the container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			password := core.GetPasswordFromEnv()
			if password == nil {
				if password, err = core.ReadPassword("Enter password: "); err != nil {
					return err
				}
			}
			defer crypto.ClearBytes(password)

			if !m.VerifyPassword(password) {
				return errors.New("password does not match")
			}
			app.Logger.Success("Password is correct")
			return nil
		},
	}
}
