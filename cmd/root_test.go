package cmd

import (
	"path/filepath"
	"testing"

	"github.com/illarion/vaultfs/internal/config"
	"github.com/illarion/vaultfs/internal/medium"
)

func TestSetupFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvContainer, filepath.Join(dir, "env.bin"))
	t.Setenv(config.EnvMediumLabel, "ENVLABEL")
	t.Setenv(config.EnvMaxFiles, "7")

	app := &App{
		containerFlag: filepath.Join(dir, "flag.bin"),
		mediumFlag:    filepath.Join(dir, "medium"),
		quiet:         true,
	}
	if err := app.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if app.Config.ContainerPath != filepath.Join(dir, "flag.bin") {
		t.Errorf("ContainerPath = %s", app.Config.ContainerPath)
	}
	if app.Config.MediumLabel != "ENVLABEL" {
		t.Errorf("MediumLabel = %s, want ENVLABEL", app.Config.MediumLabel)
	}
	if app.Config.MaxFiles != 7 {
		t.Errorf("MaxFiles = %d, want 7", app.Config.MaxFiles)
	}
	if _, ok := app.Config.Locator().(medium.DirLocator); !ok {
		t.Errorf("--medium should select a DirLocator, got %T", app.Config.Locator())
	}
	if !app.Logger.Quiet {
		t.Error("quiet flag not applied to logger")
	}

	m, err := app.newManager()
	if err != nil {
		t.Fatalf("newManager failed: %v", err)
	}
	if m.ContainerPath() != filepath.Join(dir, "flag.bin") {
		t.Errorf("manager container = %s", m.ContainerPath())
	}
}

func TestSetupRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv(config.EnvKDFIterations, "zero")

	app := &App{}
	if err := app.setup(); err == nil {
		t.Error("Expected error for invalid iteration count")
	}
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"init", "import", "export", "ls", "rm", "recover", "verify", "passwd", "diff", "status", "compact", "keyring"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %s not registered", name)
		}
	}
	if c, _, err := root.Find([]string{"list"}); err != nil || c.Name() != "ls" {
		t.Error("list alias should resolve to ls")
	}
}
