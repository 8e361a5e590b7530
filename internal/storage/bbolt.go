package storage

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/illarion/vaultfs/internal/crypto"
	bolt "go.etcd.io/bbolt"
)

// MetadataFile is the artifact name on the external medium
const MetadataFile = "vaultfs.meta"

// Bucket names
var (
	ConfigBucket  = []byte("config")  // KDF params (salt, iterations), timestamps, store ID - unencrypted
	PrivateBucket = []byte("private") // Sealed metadata record
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigSalt     = []byte("salt")
	ConfigIters    = []byte("iterations")
	ConfigStoreID  = []byte("store_id")

	recordKey = []byte("record")
)

var (
	ErrStoreUnavailable = errors.New("metadata store unavailable")
	ErrWriteFailure     = errors.New("metadata write failed")
	ErrNotInitialized   = errors.New("metadata store not initialized")
)

// openTimeout bounds how long Open waits for another process holding the file lock
const openTimeout = time.Second

// Store persists the sealed metadata record in a BBolt database
type Store struct {
	db         *bolt.DB
	path       string
	iterations int
	record     *Record
}

// Snapshot is a raw copy of the sealed state, used to roll back a write
type Snapshot struct {
	salt   []byte
	iters  []byte
	blob   []byte
	record *Record
}

// Exists reports whether a metadata artifact is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open opens or creates a metadata store
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, PrivateBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(FormatVersion)); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return &Store{db: db, path: path, iterations: crypto.DefaultIters}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the location of the metadata artifact
func (s *Store) Path() string {
	return s.path
}

// SetIterations sets the KDF iteration count used when a new salt is generated
func (s *Store) SetIterations(iterations int) {
	if iterations > 0 {
		s.iterations = iterations
	}
}

// IsInitialized reports whether a sealed record has been written
func (s *Store) IsInitialized() (bool, error) {
	if s.db == nil {
		return false, ErrStoreUnavailable
	}
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		private := tx.Bucket(PrivateBucket)
		initialized = private != nil && private.Get(recordKey) != nil
		return nil
	})
	return initialized, err
}

// kdf returns the stored KDF parameters, or nil if none were written yet
func (s *Store) kdf() (*crypto.KDF, error) {
	var kdf *crypto.KDF
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		salt := config.Get(ConfigSalt)
		iters := config.Get(ConfigIters)
		if salt == nil || len(iters) != 4 {
			return nil
		}
		kdf = &crypto.KDF{
			// Make a copy since the slice is only valid during the transaction
			Salt:       append([]byte(nil), salt...),
			Iterations: int(binary.BigEndian.Uint32(iters)),
		}
		return nil
	})
	return kdf, err
}

// Write seals rec under password and stores it atomically
func (s *Store) Write(rec *Record, password []byte) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}

	kdf, err := s.kdf()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if kdf == nil {
		if kdf, err = crypto.NewKDF(s.iterations); err != nil {
			return err
		}
	}

	return s.seal(rec, password, kdf)
}

// Rekey stores rec under newPassword with a freshly generated salt
func (s *Store) Rekey(rec *Record, newPassword []byte) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}

	kdf, err := crypto.NewKDF(s.iterations)
	if err != nil {
		return err
	}
	return s.seal(rec, newPassword, kdf)
}

func (s *Store) seal(rec *Record, password []byte, kdf *crypto.KDF) error {
	if uint64(kdf.Iterations) > math.MaxUint32 {
		return fmt.Errorf("%w: iteration count %d does not fit in 32 bits", ErrWriteFailure, kdf.Iterations)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	defer crypto.ClearBytes(data)

	enc := crypto.NewEncryptor(kdf.DeriveKey(password))
	defer enc.Destroy()

	blob, err := enc.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt metadata: %w", err)
	}

	iters := make([]byte, 4)
	binary.BigEndian.PutUint32(iters, uint32(kdf.Iterations))
	modified, _ := time.Now().MarshalBinary()

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigSalt, kdf.Salt); err != nil {
			return err
		}
		if err := config.Put(ConfigIters, iters); err != nil {
			return err
		}
		if err := config.Put(ConfigModified, modified); err != nil {
			return err
		}
		return tx.Bucket(PrivateBucket).Put(recordKey, blob)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	s.record = rec
	return nil
}

// Read opens the sealed record with password and caches it
func (s *Store) Read(password []byte) (*Record, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	kdf, err := s.kdf()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var blob []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		private := tx.Bucket(PrivateBucket)
		if private == nil {
			return nil
		}
		if data := private.Get(recordKey); data != nil {
			blob = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if kdf == nil || blob == nil {
		return nil, ErrNotInitialized
	}

	enc := crypto.NewEncryptor(kdf.DeriveKey(password))
	defer enc.Destroy()

	data, err := enc.Decrypt(blob)
	if err != nil {
		return nil, crypto.ErrAuthFailed
	}
	defer crypto.ClearBytes(data)

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if rec.FileTable == nil {
		rec.FileTable = make([]FileRecord, 0)
	}

	s.record = &rec
	return &rec, nil
}

// Record returns the cached record from the last Read or Write
func (s *Store) Record() *Record {
	return s.record
}

// UpdateField mutates one field of the cached record before the next Write
func (s *Store) UpdateField(name string, value any) error {
	if s.record == nil {
		return ErrNoRecord
	}
	return s.record.SetField(name, value)
}

// Snapshot captures the sealed state for a later Restore
func (s *Store) Snapshot() (*Snapshot, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	snap := &Snapshot{record: s.record}
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		snap.salt = append([]byte(nil), config.Get(ConfigSalt)...)
		snap.iters = append([]byte(nil), config.Get(ConfigIters)...)
		snap.blob = append([]byte(nil), tx.Bucket(PrivateBucket).Get(recordKey)...)
		return nil
	})
	return snap, err
}

// Restore writes back a snapshot taken earlier
func (s *Store) Restore(snap *Snapshot) error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		private := tx.Bucket(PrivateBucket)
		if err := putOrDelete(config, ConfigSalt, snap.salt); err != nil {
			return err
		}
		if err := putOrDelete(config, ConfigIters, snap.iters); err != nil {
			return err
		}
		return putOrDelete(private, recordKey, snap.blob)
	})
	if err != nil {
		return err
	}
	s.record = snap.record
	return nil
}

func putOrDelete(b *bolt.Bucket, key, value []byte) error {
	if len(value) == 0 {
		return b.Delete(key)
	}
	return b.Put(key, value)
}

// GetIterations retrieves the KDF iterations
func (s *Store) GetIterations() (uint32, error) {
	if s.db == nil {
		return 0, ErrStoreUnavailable
	}
	kdf, err := s.kdf()
	if err != nil {
		return 0, err
	}
	if kdf == nil {
		return 0, fmt.Errorf("iterations not found")
	}
	return uint32(kdf.Iterations), nil
}

// GetModified retrieves the last write timestamp
func (s *Store) GetModified() (time.Time, error) {
	var modified time.Time
	if s.db == nil {
		return modified, ErrStoreUnavailable
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// GetStoreID retrieves the store ID from config bucket
func (s *Store) GetStoreID() (string, error) {
	var storeID string
	if s.db == nil {
		return "", ErrStoreUnavailable
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigStoreID)
		if data == nil {
			return fmt.Errorf("store_id not found")
		}
		storeID = string(data)
		return nil
	})
	return storeID, err
}

// GetOrCreateStoreID retrieves existing store ID or generates a new one
func (s *Store) GetOrCreateStoreID() (string, error) {
	storeID, err := s.GetStoreID()
	if err == nil {
		return storeID, nil
	}

	b, err := crypto.GenerateRandom(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate store ID: %w", err)
	}
	storeID = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		return config.Put(ConfigStoreID, []byte(storeID))
	})
	if err != nil {
		return "", err
	}

	return storeID, nil
}

// Compact creates a compacted copy of the database, removing unused space.
// Every write replaces the sealed record, so free pages accumulate over time.
func (s *Store) Compact() error {
	if s.db == nil {
		return ErrStoreUnavailable
	}
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		s.db, _ = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
		os.Remove(tmpPath)
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		s.db, _ = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("%w: failed to reopen database: %w", ErrStoreUnavailable, err)
	}

	return nil
}
