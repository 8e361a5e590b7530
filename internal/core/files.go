package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/security"
	"github.com/illarion/vaultfs/internal/storage"
	"github.com/sirupsen/logrus"
)

// ImportFile copies sourcePath into the container and returns the new file id.
// A non-empty filePassword adds a per-file encryption layer.
func (m *Manager) ImportFile(ctx context.Context, sourcePath string, filePassword []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := m.requireOpen(); err != nil {
		return "", err
	}

	if m.record.ActiveCount() >= m.record.MaxFiles {
		return "", fmt.Errorf("%w (%d)", ErrCapacityExceeded, m.record.MaxFiles)
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceNotFound, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, sourcePath)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceNotFound, err)
	}
	defer crypto.ClearBytes(data)

	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		absPath = sourcePath
	}

	created, accessed := statTimes(info)
	uid, gid := ownerOf(sourcePath)
	file := storage.FileRecord{
		ID:           uuid.NewString(),
		Filename:     filepath.Base(sourcePath),
		OriginalPath: absPath,
		OriginalSize: int64(len(data)),
		Created:      created,
		Modified:     info.ModTime(),
		Accessed:     accessed,
		ImportedDate: time.Now(),
		Attributes: storage.Attributes{
			Mode: uint32(info.Mode()),
			UID:  uid,
			GID:  gid,
		},
	}

	stored := data
	if len(filePassword) > 0 {
		sealed, enc, err := m.sealFile(data, filePassword)
		if err != nil {
			return "", err
		}
		defer crypto.ClearBytes(sealed)
		stored = sealed
		file.Encrypted = true
		file.Encryption = enc
	}
	file.Size = int64(len(stored))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	plain, err := m.readPlain()
	if err != nil {
		return "", err
	}
	file.Position = int64(len(plain))
	plain = appendPayload(plain, stored)
	defer crypto.ClearBytes(plain)

	next := m.record.Clone()
	next.AddFile(file)
	if err := m.commit(plain, next); err != nil {
		return "", err
	}

	m.log.WithFields(logrus.Fields{
		"file_id":   file.ID,
		"filename":  file.Filename,
		"size":      file.Size,
		"position":  file.Position,
		"encrypted": file.Encrypted,
	}).Info("file imported")
	return file.ID, nil
}

// sealFile applies the per-file layer under a fresh salt and nonce
func (m *Manager) sealFile(data, password []byte) ([]byte, *storage.Encryption, error) {
	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := crypto.GenerateRandom(crypto.NonceSize)
	if err != nil {
		return nil, nil, err
	}

	key, derived := crypto.DeriveKeyMaterial(password, salt, m.iterations)
	defer crypto.ClearBytes(key)
	crypto.ClearBytes(derived)

	sealed, err := crypto.Seal(data, key, nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt file: %w", err)
	}
	return sealed, &storage.Encryption{Salt: salt, Nonce: nonce}, nil
}

// readFile returns the plaintext bytes of an active record
func (m *Manager) readFile(id string, filePassword []byte) ([]byte, *storage.FileRecord, error) {
	if err := m.requireOpen(); err != nil {
		return nil, nil, err
	}

	f := m.record.FindFileState(id, false)
	if f == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if f.Encrypted && len(filePassword) == 0 {
		return nil, nil, ErrPasswordRequired
	}
	file := f.Clone()

	plain, err := m.readPlain()
	if err != nil {
		return nil, nil, err
	}
	defer crypto.ClearBytes(plain)

	end := file.Position + file.Size
	if file.Position < int64(m.header.Len()) || end > int64(len(plain)) {
		return nil, nil, fmt.Errorf("%w: %s lies outside the container", ErrReadFailure, id)
	}
	data := append([]byte(nil), plain[file.Position:end]...)

	if !file.Encrypted {
		return data, &file, nil
	}
	defer crypto.ClearBytes(data)

	if file.Encryption == nil {
		return nil, nil, fmt.Errorf("%w: %s has no encryption parameters", ErrReadFailure, id)
	}
	key, derived := crypto.DeriveKeyMaterial(filePassword, file.Encryption.Salt, m.iterations)
	defer crypto.ClearBytes(key)
	crypto.ClearBytes(derived)

	out, err := crypto.Open(data, key, file.Encryption.Nonce)
	if err != nil {
		return nil, nil, ErrAuthentication
	}
	return out, &file, nil
}

// ExportFile writes the plaintext of an active record to dest and restores
// its permission bits and timestamps
func (m *Manager) ExportFile(ctx context.Context, id, dest string, filePassword []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, file, err := m.readFile(id, filePassword)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(data)

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, DirPermSecure); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailure, err)
		}
	}
	if err := os.WriteFile(dest, data, FilePermSecure); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	m.restoreAttributes(dest, file).WithField("size", len(data)).Info("file exported")
	return nil
}

// ExportToDir writes an active record into dir under its stored file name.
// The name must be a single local path element.
func (m *Manager) ExportToDir(ctx context.Context, id, dir string, filePassword []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, file, err := m.readFile(id, filePassword)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(data)

	target, err := security.OpenDir(dir, DirPermSecure)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	defer target.Close()

	dest, err := target.WriteFile(file.Filename, data, FilePermSecure)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	m.restoreAttributes(dest, file).WithField("size", len(data)).Info("file exported")
	return dest, nil
}

// restoreAttributes applies stored permission bits and timestamps to dest.
// Failures are logged, not returned.
func (m *Manager) restoreAttributes(dest string, file *storage.FileRecord) *logrus.Entry {
	log := m.log.WithFields(logrus.Fields{
		"file_id":  file.ID,
		"filename": file.Filename,
		"dest":     dest,
	})
	if perm := os.FileMode(file.Attributes.Mode).Perm(); perm != 0 {
		if err := os.Chmod(dest, perm); err != nil {
			log.WithError(err).Warn("failed to restore file mode")
		}
	}
	if err := os.Chtimes(dest, file.Accessed, file.Modified); err != nil {
		log.WithError(err).Warn("failed to restore file times")
	}
	return log
}

// ListFiles returns copies of the file records in table order
func (m *Manager) ListFiles(includeDeleted bool) ([]storage.FileRecord, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	files := make([]storage.FileRecord, 0, len(m.record.FileTable))
	for _, f := range m.record.FileTable {
		if f.Deleted && !includeDeleted {
			continue
		}
		files = append(files, f.Clone())
	}
	return files, nil
}

// DeleteSoft marks an active record deleted. Its bytes stay in the container.
func (m *Manager) DeleteSoft(id string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}

	next := m.record.Clone()
	f := next.FindFileState(id, false)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := time.Now()
	f.Deleted = true
	f.DeletedDate = &now

	if err := m.persist(next); err != nil {
		return err
	}
	m.log.WithField("file_id", id).Info("file moved to trash")
	return nil
}

// Recover reactivates a soft-deleted record
func (m *Manager) Recover(id string) error {
	if err := m.requireOpen(); err != nil {
		return err
	}

	next := m.record.Clone()
	f := next.FindFileState(id, true)
	if f == nil {
		return fmt.Errorf("%w: no deleted file %s", ErrNotFound, id)
	}
	if next.ActiveCount() >= next.MaxFiles {
		return fmt.Errorf("%w (%d)", ErrCapacityExceeded, next.MaxFiles)
	}
	f.Deleted = false
	f.DeletedDate = nil

	if err := m.persist(next); err != nil {
		return err
	}
	m.log.WithField("file_id", id).Info("file recovered")
	return nil
}

// DeletePermanent cuts a record's bytes out of the container and shifts
// every later record down by the removed size
func (m *Manager) DeletePermanent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.requireOpen(); err != nil {
		return err
	}

	next := m.record.Clone()
	removed, ok := next.RemoveFile(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	plain, err := m.readPlain()
	if err != nil {
		return err
	}
	end := removed.Position + removed.Size
	if removed.Position < int64(m.header.Len()) || end > int64(len(plain)) {
		crypto.ClearBytes(plain)
		return fmt.Errorf("%w: %s lies outside the container", ErrReadFailure, id)
	}
	plain = cutPayload(plain, removed.Position, end)
	defer crypto.ClearBytes(plain)

	for i := range next.FileTable {
		if next.FileTable[i].Position > removed.Position {
			next.FileTable[i].Position -= removed.Size
		}
	}

	if err := m.commit(plain, next); err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"file_id":  id,
		"filename": removed.Filename,
		"size":     removed.Size,
		"position": removed.Position,
	}).Info("file permanently deleted")
	return nil
}

// Diff returns a unified diff between a stored file and localPath, or an
// empty string when they are identical
func (m *Manager) Diff(ctx context.Context, id, localPath string, filePassword []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored, file, err := m.readFile(id, filePassword)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(stored)

	local, err := os.ReadFile(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, localPath)
		}
		return "", fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	defer crypto.ClearBytes(local)

	return GenerateUnifiedDiff(file.Filename, stored, local)
}
