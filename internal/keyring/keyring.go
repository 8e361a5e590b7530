// Package keyring caches the container access password in the OS keyring,
// keyed by the metadata store ID.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "vaultfs"

// ErrNotFound is returned when no password is cached for a store
var ErrNotFound = errors.New("no password in keyring")

// account names the keyring entry of one metadata store
func account(storeID string) (string, error) {
	if storeID == "" {
		return "", errors.New("empty store id")
	}
	return "store:" + storeID, nil
}

// SavePassword caches password for storeID, replacing any previous entry
func SavePassword(storeID string, password []byte) error {
	acct, err := account(storeID)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return errors.New("refusing to cache an empty password")
	}
	if err := keyring.Set(serviceName, acct, string(password)); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	return nil
}

// GetPassword returns the cached password for storeID.
// The caller is responsible for clearing the returned slice.
func GetPassword(storeID string) ([]byte, error) {
	acct, err := account(storeID)
	if err != nil {
		return nil, err
	}
	secret, err := keyring.Get(serviceName, acct)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring read failed: %w", err)
	}
	return []byte(secret), nil
}

// DeletePassword removes the cached password for storeID
func DeletePassword(storeID string) error {
	acct, err := account(storeID)
	if err != nil {
		return err
	}
	err = keyring.Delete(serviceName, acct)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassword reports whether a password is cached for storeID
func HasPassword(storeID string) bool {
	acct, err := account(storeID)
	if err != nil {
		return false
	}
	_, err = keyring.Get(serviceName, acct)
	return err == nil
}

// UpdatePassword replaces a cached password after rotation. It reports
// false and writes nothing when no entry exists.
func UpdatePassword(storeID string, password []byte) (bool, error) {
	if !HasPassword(storeID) {
		return false, nil
	}
	return true, SavePassword(storeID, password)
}
