package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/vaultfs/internal/crypto"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

// deriveMasterKey stretches the access password and container salt.
// The derived nonce is discarded: every seal draws a fresh one.
func deriveMasterKey(password, salt []byte, iterations int) []byte {
	key, nonce := crypto.DeriveKeyMaterial(password, salt, iterations)
	crypto.ClearBytes(nonce)
	return key
}

// sealContainer encrypts a decrypted container image
func sealContainer(plain, key []byte) ([]byte, error) {
	enc := crypto.NewEncryptor(append([]byte(nil), key...))
	defer enc.Destroy()

	blob, err := enc.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt container: %w", err)
	}
	return blob, nil
}

// openContainer reads and decrypts the container at path
func openContainer(path string, key []byte) ([]byte, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	enc := crypto.NewEncryptor(append([]byte(nil), key...))
	defer enc.Destroy()

	plain, err := enc.Decrypt(blob)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plain, nil
}

// appendPayload returns a new buffer holding plain followed by data.
// plain is cleared.
func appendPayload(plain, data []byte) []byte {
	out := make([]byte, 0, len(plain)+len(data))
	out = append(out, plain...)
	out = append(out, data...)
	crypto.ClearBytes(plain)
	return out
}

// cutPayload returns a new buffer without plain[start:end]. plain is cleared.
func cutPayload(plain []byte, start, end int64) []byte {
	out := make([]byte, 0, int64(len(plain))-(end-start))
	out = append(out, plain[:start]...)
	out = append(out, plain[end:]...)
	crypto.ClearBytes(plain)
	return out
}

// stageContainer seals plain into a temp file next to path and returns
// the temp file name. Nothing at path changes until commitStaged.
func stageContainer(path string, plain, key []byte) (string, error) {
	blob, err := sealContainer(plain, key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	tmpPath := tmpFile.Name()

	fail := func(err error) (string, error) {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	if _, err := tmpFile.Write(blob); err != nil {
		return fail(err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fail(err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if err := os.Chmod(tmpPath, FilePermSecure); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	return tmpPath, nil
}

// rename is swapped in tests to fail the final step of a commit
var rename = os.Rename

// commitStaged atomically replaces path with the staged file
func commitStaged(tmpPath, path string) error {
	if err := rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	_ = syncDir(filepath.Dir(path))
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// fileExists reports whether path names a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
