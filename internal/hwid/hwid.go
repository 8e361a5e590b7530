// Package hwid exposes the identifier of the current machine.
package hwid

import (
	"fmt"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

// Identity returns a stable per-machine value
type Identity interface {
	CurrentIdentifier() ([]byte, error)
}

// MachineIdentity reads the OS machine id (/etc/machine-id, IOPlatformUUID,
// or the MachineGuid registry value depending on the platform).
type MachineIdentity struct{}

// CurrentIdentifier returns the raw machine id
func (MachineIdentity) CurrentIdentifier() ([]byte, error) {
	id, err := machineid.ID()
	if err != nil {
		return nil, fmt.Errorf("failed to read machine id: %w", err)
	}
	return []byte(strings.TrimSpace(id)), nil
}

// Static is a fixed identifier
type Static []byte

// CurrentIdentifier returns the fixed value
func (s Static) CurrentIdentifier() ([]byte, error) {
	return append([]byte(nil), s...), nil
}
