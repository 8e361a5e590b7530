package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/illarion/vaultfs/internal/core"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/keyring"
	"github.com/illarion/vaultfs/internal/lock"
)

// GetPassword retrieves the access password from the environment, then the
// OS keyring, then the terminal.
// The caller is responsible for calling crypto.ClearBytes on the returned password
func (a *App) GetPassword(m *core.Manager, prompt string) ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}

	if storeID, err := m.StoreID(); err == nil {
		if password, err := keyring.GetPassword(storeID); err == nil {
			if m.VerifyPassword(password) {
				a.Logger.Debug("using password from keyring")
				return password, nil
			}
			crypto.ClearBytes(password)
			a.Logger.Warning("stale password in keyring, run 'vaultfs keyring delete'")
		}
	}

	return core.ReadPassword(prompt)
}

// GetPasswordForInit retrieves the password for a new container.
// Checks the environment first, then prompts with confirmation.
func GetPasswordForInit() ([]byte, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm("Enter new password: ")
}

// GetFilePassword prompts for a per-file password. It is never read from the
// environment or the keyring.
func GetFilePassword(confirm bool) ([]byte, error) {
	if confirm {
		return core.ReadPasswordConfirm("Enter file password: ")
	}
	return core.ReadPassword("Enter file password: ")
}

// openManager creates a Manager and loads the container
func (a *App) openManager() (*core.Manager, error) {
	m, err := a.newManager()
	if err != nil {
		return nil, err
	}

	password, err := a.GetPassword(m, "Enter password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password)

	if err := m.Load(password); err != nil {
		return nil, err
	}
	a.Logger.Debug("container loaded: %s", m.ContainerPath())
	return m, nil
}

// HandleError prints an error with a hint for the known failure kinds
func HandleError(err error) {
	red := color.New(color.FgRed, color.Bold)
	hint := ""

	switch {
	case errors.Is(err, core.ErrNotInitialized):
		hint = "Run 'vaultfs init' first"
	case errors.Is(err, core.ErrAlreadyExists):
		hint = "Use 'vaultfs status' to see current state"
	case errors.Is(err, core.ErrMediumUnavailable):
		hint = "Attach the medium or pass --medium <dir>"
	case errors.Is(err, core.ErrAuthentication):
		err = errors.New("wrong password")
	case errors.Is(err, core.ErrHardwareMismatch):
		hint = "The container can only be opened on the machine that created it"
	case errors.Is(err, core.ErrCapacityExceeded):
		hint = "Delete files permanently with 'vaultfs rm --permanent'"
	case errors.Is(err, lock.ErrLocked):
		hint = "Another vaultfs process is using this container"
	}

	red.Fprintf(os.Stderr, "Error: %s\n", err)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
}
