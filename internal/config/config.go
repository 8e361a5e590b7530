// Package config resolves runtime settings from the environment.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/medium"
	"github.com/illarion/vaultfs/internal/storage"
)

// Environment variables
const (
	EnvContainer     = "VAULTFS_CONTAINER"
	EnvMediumLabel   = "VAULTFS_MEDIUM_LABEL"
	EnvMediumPath    = "VAULTFS_MEDIUM_PATH"
	EnvMaxFiles      = "VAULTFS_MAX_FILES"
	EnvKDFIterations = "VAULTFS_KDF_ITERATIONS"
	EnvPassword      = "VAULTFS_PASSWORD"
)

// DefaultContainer is the container file name used when none is configured
const DefaultContainer = "vault.bin"

// Config holds the settings shared by every command
type Config struct {
	ContainerPath string
	MediumLabel   string
	MediumPath    string
	MaxFiles      int
	Iterations    int
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		ContainerPath: DefaultContainer,
		MediumLabel:   medium.DefaultLabel,
		MaxFiles:      storage.DefaultMaxFiles,
		Iterations:    crypto.DefaultIters,
	}
}

// Load starts from Default and applies environment overrides
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup is Load with a custom variable source
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvContainer); ok && v != "" {
		cfg.ContainerPath = v
	}
	if v, ok := lookup(EnvMediumLabel); ok && v != "" {
		cfg.MediumLabel = v
	}
	if v, ok := lookup(EnvMediumPath); ok && v != "" {
		cfg.MediumPath = v
	}

	var err error
	if cfg.MaxFiles, err = positiveInt(lookup, EnvMaxFiles, cfg.MaxFiles); err != nil {
		return cfg, err
	}
	if cfg.Iterations, err = positiveInt(lookup, EnvKDFIterations, cfg.Iterations); err != nil {
		return cfg, err
	}
	// The metadata store records the count as 32 bits
	if uint64(cfg.Iterations) > math.MaxUint32 {
		return Default(), fmt.Errorf("invalid %s %d: exceeds %d", EnvKDFIterations, cfg.Iterations, uint64(math.MaxUint32))
	}

	return cfg, nil
}

func positiveInt(lookup func(string) (string, bool), name string, fallback int) (int, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("invalid %s %q: must be a positive integer", name, v)
	}
	return n, nil
}

// Locator returns the medium locator selected by the configuration.
// An explicit medium path wins over label lookup.
func (c Config) Locator() medium.Locator {
	if c.MediumPath != "" {
		return medium.DirLocator{Dir: c.MediumPath}
	}
	return medium.NewLabelLocator(c.MediumLabel)
}

// AbsContainerPath returns the container path made absolute
func (c Config) AbsContainerPath() (string, error) {
	return filepath.Abs(c.ContainerPath)
}
