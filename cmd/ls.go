package cmd

import (
	"time"

	"github.com/illarion/vaultfs/internal/ui"
	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	var all, asJSON bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.openManager()
			if err != nil {
				return err
			}
			defer m.Close()

			files, err := m.ListFiles(all)
			if err != nil {
				return err
			}

			if asJSON {
				return ui.PrintJSON(files)
			}
			if len(files) == 0 {
				app.Logger.Info("No files stored")
				return nil
			}

			table := ui.NewTable("ID", "NAME", "SIZE", "MODIFIED", "FLAGS")
			for _, f := range files {
				flags := ""
				if f.Encrypted {
					flags += "E"
				}
				if f.Deleted {
					flags += "D"
				}
				table.AddRow(f.ID, f.Filename, ui.FormatSize(f.OriginalSize), f.Modified.Format(time.DateTime), flags)
			}
			table.Fprint(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include files in the trash")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "JSON output")
	return cmd
}
