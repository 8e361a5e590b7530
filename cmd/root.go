// Package cmd implements the vaultfs command line.
package cmd

import (
	"context"
	"io"

	"github.com/illarion/vaultfs/internal/config"
	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// App holds the state shared by all commands
type App struct {
	Config config.Config
	Logger *ui.Logger
	Log    *logrus.Logger

	containerFlag string
	mediumFlag    string
	labelFlag     string
	verbose       bool
	quiet         bool
	noColor       bool
}

// NewRootCommand builds the vaultfs command tree
func NewRootCommand() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "vaultfs",
		Short: "vaultfs - encrypted single-file container",
		Long: `vaultfs keeps files inside one encrypted container file.

The container is bound to this machine and can only be opened while the
removable medium holding its metadata is attached.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.containerFlag, "container", "c", "", "Container file (default $"+config.EnvContainer+" or "+config.DefaultContainer+")")
	flags.StringVar(&app.mediumFlag, "medium", "", "Directory of the external medium, skips label lookup")
	flags.StringVar(&app.labelFlag, "label", "", "Volume label of the external medium")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&app.quiet, "quiet", "q", false, "Quiet mode (suppress non-error output)")
	flags.BoolVar(&app.noColor, "no-color", false, "Disable color output")

	root.AddCommand(
		newInitCommand(app),
		newImportCommand(app),
		newExportCommand(app),
		newListCommand(app),
		newRemoveCommand(app),
		newRecoverCommand(app),
		newVerifyCommand(app),
		newPasswdCommand(app),
		newDiffCommand(app),
		newStatusCommand(app),
		newCompactCommand(app),
		newKeyringCommand(app),
	)

	return root
}

// setup merges the environment configuration with command-line flags
func (a *App) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.containerFlag != "" {
		cfg.ContainerPath = a.containerFlag
	}
	if a.mediumFlag != "" {
		cfg.MediumPath = a.mediumFlag
	}
	if a.labelFlag != "" {
		cfg.MediumLabel = a.labelFlag
	}
	a.Config = cfg

	a.Logger = ui.NewLogger(a.verbose, a.quiet, a.noColor)

	a.Log = logrus.New()
	a.Log.SetOutput(io.Discard)
	if a.verbose {
		a.Log.SetOutput(a.Logger.Writer())
		a.Log.SetLevel(logrus.DebugLevel)
		a.Log.SetFormatter(&logrus.TextFormatter{DisableColors: a.noColor, DisableTimestamp: true})
	}
	return nil
}

// newManager creates a Manager for the configured container
func (a *App) newManager() (*core.Manager, error) {
	path, err := a.Config.AbsContainerPath()
	if err != nil {
		return nil, err
	}
	return core.New(path,
		core.WithLogger(a.Log),
		core.WithLocator(a.Config.Locator()),
		core.WithIterations(a.Config.Iterations),
		core.WithMaxFiles(a.Config.MaxFiles),
	), nil
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil {
		HandleError(err)
	}
	return err
}
