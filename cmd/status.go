package cmd

import (
	"fmt"
	"time"

	"github.com/illarion/vaultfs/internal/keyring"
	"github.com/illarion/vaultfs/internal/ui"
	"github.com/spf13/cobra"
)

func newStatusCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show container details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			info, err := m.Info()
			if err != nil {
				return err
			}
			if asJSON {
				return ui.PrintJSON(info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Container:     %s (%s)\n", info.ContainerPath, ui.FormatSize(info.ContainerSize))
			fmt.Fprintf(w, "Medium:        %s\n", info.MediumRoot)
			fmt.Fprintf(w, "Created:       %s\n", info.Created.Format(time.RFC3339))
			fmt.Fprintf(w, "Last modified: %s\n", info.LastModified.Format(time.RFC3339))
			fmt.Fprintf(w, "Version:       %s\n", info.Version)
			fmt.Fprintf(w, "Platform:      %s\n", info.Platform)
			fmt.Fprintf(w, "Files:         %d of %d (%d in trash)\n", info.FileCount, info.MaxFiles, info.DeletedCount)
			fmt.Fprintf(w, "Payload:       %s\n", ui.FormatSize(info.PayloadSize))
			fmt.Fprintf(w, "Encryption:    %s, %s with %d iterations\n", info.Cipher, info.KDF, info.KDFIterations)

			cached := "not stored"
			if info.StoreID != "" && keyring.HasPassword(info.StoreID) {
				cached = "stored in keyring"
			}
			fmt.Fprintf(w, "Password:      %s\n", cached)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "JSON output")
	return cmd
}
