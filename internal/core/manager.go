package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/hwid"
	"github.com/illarion/vaultfs/internal/lock"
	"github.com/illarion/vaultfs/internal/medium"
	"github.com/illarion/vaultfs/internal/storage"
	"github.com/sirupsen/logrus"
)

// Algorithm names reported by Info
const (
	CipherName = "AES-256-GCM"
	KDFName    = "PBKDF2-HMAC-SHA256"
)

// Manager owns one container file and its external metadata store.
// It is not safe for concurrent use.
type Manager struct {
	containerPath string
	locator       medium.Locator
	identity      hwid.Identity
	log           *logrus.Logger
	iterations    int
	maxFiles      int

	// Set while the container is open
	handle   medium.Handle
	store    *storage.Store
	record   *storage.Record
	header   *Header
	key      []byte
	password []byte
	lockFile *os.File
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the structured logger
func WithLogger(log *logrus.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithLocator sets how the external medium is found
func WithLocator(l medium.Locator) Option {
	return func(m *Manager) {
		if l != nil {
			m.locator = l
		}
	}
}

// WithIdentity sets the source of the hardware identifier
func WithIdentity(id hwid.Identity) Option {
	return func(m *Manager) {
		if id != nil {
			m.identity = id
		}
	}
}

// WithIterations sets the KDF iteration count for a new container
func WithIterations(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.iterations = n
		}
	}
}

// WithMaxFiles sets the active file capacity for a new container
func WithMaxFiles(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxFiles = n
		}
	}
}

// New creates a Manager for the container at containerPath
func New(containerPath string, opts ...Option) *Manager {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	m := &Manager{
		containerPath: containerPath,
		locator:       medium.NewLabelLocator(medium.DefaultLabel),
		identity:      hwid.MachineIdentity{},
		log:           quiet,
		iterations:    crypto.DefaultIters,
		maxFiles:      storage.DefaultMaxFiles,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ContainerPath returns the location of the container file
func (m *Manager) ContainerPath() string {
	return m.containerPath
}

// IsOpen reports whether Initialize or Load succeeded and Close was not called
func (m *Manager) IsOpen() bool {
	return m.record != nil
}

func (m *Manager) requireOpen() error {
	if !m.IsOpen() {
		return ErrNotInitialized
	}
	return nil
}

// locate finds the medium and returns the metadata artifact path on it
func (m *Manager) locate() (medium.Handle, string, error) {
	h, err := m.locator.Locate()
	if err != nil {
		return medium.Handle{}, "", fmt.Errorf("%w: %w", ErrMediumUnavailable, err)
	}
	return h, h.Path(storage.MetadataFile), nil
}

// fingerprint hashes the current machine identifier
func (m *Manager) fingerprint() (string, error) {
	id, err := m.identity.CurrentIdentifier()
	if err != nil {
		return "", fmt.Errorf("failed to read hardware identifier: %w", err)
	}
	return crypto.Fingerprint(id), nil
}

// Initialize creates a new container and its metadata record
func (m *Manager) Initialize(password []byte) (err error) {
	if m.IsOpen() {
		return ErrAlreadyExists
	}
	if len(password) == 0 {
		return ErrPasswordRequired
	}

	h, metaPath, err := m.locate()
	if err != nil {
		return err
	}
	if fileExists(m.containerPath) {
		return ErrAlreadyExists
	}

	if err := os.MkdirAll(filepath.Dir(m.containerPath), DirPermSecure); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if err := m.acquire(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			m.reset()
		}
	}()

	store, err := storage.Open(metaPath)
	if err != nil {
		return err
	}
	m.store = store
	m.handle = h

	initialized, err := store.IsInitialized()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if initialized {
		return ErrAlreadyExists
	}
	store.SetIterations(m.iterations)

	fp, err := m.fingerprint()
	if err != nil {
		return err
	}
	header, err := NewHeader(fp, PlatformDescriptor())
	if err != nil {
		return err
	}

	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	if err != nil {
		return err
	}

	rec := storage.NewRecord(m.maxFiles)
	rec.Salt = salt
	rec.Identifier = fp

	m.key = deriveMasterKey(password, salt, m.iterations)
	m.password = append([]byte(nil), password...)
	m.header = header

	if _, err := store.GetOrCreateStoreID(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if err := m.commit(header.Encode(), rec); err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"container": m.containerPath,
		"medium":    h.Root,
		"max_files": rec.MaxFiles,
	}).Info("container initialized")
	return nil
}

// Load opens an existing container. The metadata record must decrypt with
// password, and the container must have been created on this machine.
func (m *Manager) Load(password []byte) (err error) {
	if m.IsOpen() {
		m.Close()
	}

	h, metaPath, err := m.locate()
	if err != nil {
		return err
	}
	if !medium.MetadataPresent(h, storage.MetadataFile) {
		return fmt.Errorf("%w: %s not found", ErrStoreUnavailable, metaPath)
	}
	if !fileExists(m.containerPath) {
		return ErrNotInitialized
	}

	if err := m.acquire(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			m.reset()
		}
	}()

	store, err := storage.Open(metaPath)
	if err != nil {
		return err
	}
	m.store = store
	m.handle = h

	rec, err := store.Read(password)
	if err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return ErrNotInitialized
		}
		return err
	}

	iters, err := store.GetIterations()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	store.SetIterations(int(iters))

	key := deriveMasterKey(password, rec.Salt, int(iters))
	plain, err := openContainer(m.containerPath, key)
	if err != nil {
		crypto.ClearBytes(key)
		return err
	}
	defer crypto.ClearBytes(plain)

	header, err := ParseHeader(plain)
	if err != nil {
		crypto.ClearBytes(key)
		return err
	}

	fp, err := m.fingerprint()
	if err != nil {
		crypto.ClearBytes(key)
		return err
	}
	if header.IdentifierHex() != fp || rec.Identifier != fp {
		crypto.ClearBytes(key)
		return ErrHardwareMismatch
	}

	rec.Recount()
	if want := int64(header.Len()) + rec.PayloadSize(); int64(len(plain)) != want {
		m.log.WithFields(logrus.Fields{
			"container_size": len(plain),
			"expected_size":  want,
		}).Warn("container size does not match file table")
	}

	m.iterations = int(iters)
	m.key = key
	m.password = append([]byte(nil), password...)
	m.header = header
	m.record = rec

	m.log.WithFields(logrus.Fields{
		"container":     m.containerPath,
		"file_count":    rec.FileCount,
		"deleted_count": rec.DeletedCount,
	}).Debug("container loaded")
	return nil
}

// Save recomputes counters and persists the metadata record.
// The container is sealed after every operation, so only metadata is written.
func (m *Manager) Save() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	return m.persist(m.record.Clone())
}

// Close drops key material and releases the store and the container lock
func (m *Manager) Close() error {
	var err error
	if m.store != nil {
		err = m.store.Close()
	}
	m.reset()
	return err
}

func (m *Manager) reset() {
	crypto.ClearBytes(m.key)
	crypto.ClearBytes(m.password)
	if m.store != nil {
		m.store.Close()
	}
	lock.Release(m.lockFile)

	m.handle = medium.Handle{}
	m.store = nil
	m.record = nil
	m.header = nil
	m.key = nil
	m.password = nil
	m.lockFile = nil
}

func (m *Manager) acquire() error {
	f, err := lock.Acquire(m.containerPath)
	if err != nil {
		return err
	}
	m.lockFile = f
	return nil
}

// persist writes a metadata-only change
func (m *Manager) persist(rec *storage.Record) error {
	rec.Recount()
	rec.LastModified = time.Now()
	if err := m.store.Write(rec, m.password); err != nil {
		return err
	}
	m.record = rec
	return nil
}

// commit writes a new container image and its matching record
func (m *Manager) commit(plain []byte, rec *storage.Record) error {
	return m.commitWith(plain, rec, m.key, func() error {
		return m.store.Write(rec, m.password)
	})
}

// commitWith stages the sealed container, runs writeMeta, then swaps the
// container in. A failed swap rolls the metadata back to its prior state.
func (m *Manager) commitWith(plain []byte, rec *storage.Record, key []byte, writeMeta func() error) error {
	rec.Recount()
	rec.LastModified = time.Now()

	tmpPath, err := stageContainer(m.containerPath, plain, key)
	if err != nil {
		return err
	}

	snap, err := m.store.Snapshot()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err := writeMeta(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := commitStaged(tmpPath, m.containerPath); err != nil {
		if rerr := m.store.Restore(snap); rerr != nil {
			m.log.WithError(rerr).Error("failed to roll back metadata after container write failure")
		}
		return err
	}

	m.record = rec
	return nil
}

// readPlain decrypts the container into memory with the current key
func (m *Manager) readPlain() ([]byte, error) {
	plain, err := openContainer(m.containerPath, m.key)
	if err != nil {
		return nil, err
	}
	if len(plain) < m.header.Len() {
		crypto.ClearBytes(plain)
		return nil, ErrCorruptHeader
	}
	return plain, nil
}

// VerifyPassword reports whether candidate opens both the metadata record
// and the container. It never returns an error.
func (m *Manager) VerifyPassword(candidate []byte) bool {
	ok := false
	err := m.withStore(func(store *storage.Store) error {
		rec, err := store.Read(candidate)
		if err != nil {
			return err
		}
		iters, err := store.GetIterations()
		if err != nil {
			return err
		}

		key := deriveMasterKey(candidate, rec.Salt, int(iters))
		defer crypto.ClearBytes(key)

		plain, err := openContainer(m.containerPath, key)
		if err != nil {
			return err
		}
		crypto.ClearBytes(plain)
		ok = true
		return nil
	})
	if err != nil {
		m.log.WithError(err).Debug("password verification failed")
	}
	return ok
}

// ChangePassword re-keys the metadata record and the container.
// Per-file passwords are not affected.
func (m *Manager) ChangePassword(oldPassword, newPassword []byte) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if len(newPassword) == 0 {
		return ErrPasswordRequired
	}
	if !m.VerifyPassword(oldPassword) {
		return ErrAuthentication
	}

	plain, err := m.readPlain()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plain)

	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	if err != nil {
		return err
	}
	newKey := deriveMasterKey(newPassword, salt, m.iterations)

	next := m.record.Clone()
	next.Salt = salt

	err = m.commitWith(plain, next, newKey, func() error {
		return m.store.Rekey(next, newPassword)
	})
	if err != nil {
		crypto.ClearBytes(newKey)
		return err
	}

	crypto.ClearBytes(m.key)
	crypto.ClearBytes(m.password)
	m.key = newKey
	m.password = append([]byte(nil), newPassword...)

	m.log.Info("access password changed")
	return nil
}

// withStore runs fn against the open store, or opens the store on the
// medium for the duration of the call
func (m *Manager) withStore(fn func(*storage.Store) error) error {
	if m.store != nil {
		return fn(m.store)
	}

	h, metaPath, err := m.locate()
	if err != nil {
		return err
	}
	if !medium.MetadataPresent(h, storage.MetadataFile) {
		return ErrNotInitialized
	}
	store, err := storage.Open(metaPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// StoreID returns the metadata store identifier, used as the keyring account
func (m *Manager) StoreID() (string, error) {
	var id string
	err := m.withStore(func(store *storage.Store) (err error) {
		id, err = store.GetStoreID()
		return err
	})
	return id, err
}

// GetOrCreateStoreID returns the store identifier, creating it if missing
func (m *Manager) GetOrCreateStoreID() (string, error) {
	var id string
	err := m.withStore(func(store *storage.Store) (err error) {
		id, err = store.GetOrCreateStoreID()
		return err
	})
	return id, err
}

// Compact reclaims free pages in the metadata store
func (m *Manager) Compact() error {
	return m.withStore(func(store *storage.Store) error {
		return store.Compact()
	})
}

// Info describes an open container
type Info struct {
	ContainerPath string
	MediumRoot    string
	StoreID       string
	Created       time.Time
	LastModified  time.Time
	Version       string
	Identifier    string
	Platform      string
	FileCount     int
	DeletedCount  int
	MaxFiles      int
	PayloadSize   int64
	ContainerSize int64
	Cipher        string
	KDF           string
	KDFIterations int
}

// Info returns counts, sizes and parameters of the open container
func (m *Manager) Info() (*Info, error) {
	if err := m.requireOpen(); err != nil {
		return nil, err
	}

	info := &Info{
		ContainerPath: m.containerPath,
		MediumRoot:    m.handle.Root,
		Created:       m.record.CreationDate,
		LastModified:  m.record.LastModified,
		Version:       m.record.Version,
		Identifier:    m.record.Identifier,
		Platform:      m.header.Platform,
		FileCount:     m.record.FileCount,
		DeletedCount:  m.record.DeletedCount,
		MaxFiles:      m.record.MaxFiles,
		PayloadSize:   m.record.PayloadSize(),
		Cipher:        CipherName,
		KDF:           KDFName,
		KDFIterations: m.iterations,
	}
	if id, err := m.store.GetStoreID(); err == nil {
		info.StoreID = id
	}
	if st, err := os.Stat(m.containerPath); err == nil {
		info.ContainerSize = st.Size()
	}
	return info, nil
}
