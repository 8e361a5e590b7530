package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 100000 // Default PBKDF2 iterations
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
)

// KDF handles key derivation from passwords
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF(iterations int) (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if iterations <= 0 {
		iterations = DefaultIters
	}

	return &KDF{
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password []byte) []byte {
	key, nonce := DeriveKeyMaterial(password, k.Salt, k.Iterations)
	ClearBytes(nonce)
	return key
}

// DeriveKeyMaterial stretches password and salt into KeySize+NonceSize bytes.
// The first KeySize bytes are the key, the remaining NonceSize the nonce.
func DeriveKeyMaterial(password, salt []byte, iterations int) (key, nonce []byte) {
	if iterations <= 0 {
		iterations = DefaultIters
	}
	blob := pbkdf2.Key(password, salt, iterations, KeySize+NonceSize, sha256.New)
	return blob[:KeySize:KeySize], blob[KeySize:]
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext with AES-256-GCM under the given key and nonce.
// The output is the authentication tag followed by the ciphertext.
func Seal(plaintext, key, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// gcm.Seal emits ciphertext||tag; move the tag to the front
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize

	result := make([]byte, len(sealed))
	copy(result, sealed[ctLen:])
	copy(result[TagSize:], sealed[:ctLen])

	return result, nil
}

// Open reverses Seal. Any verification failure returns ErrAuthFailed.
func Open(data, key, nonce []byte) ([]byte, error) {
	if len(data) < TagSize || len(nonce) != NonceSize {
		return nil, ErrAuthFailed
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, len(data))
	copy(sealed, data[TagSize:])
	copy(sealed[len(data)-TagSize:], data[:TagSize])

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Encryptor provides authenticated encryption with a fresh nonce per call
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{
		key: key,
	}
}

// Encrypt seals plaintext under a random nonce.
// Output layout: nonce(12) || tag(16) || ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed, err := Seal(plaintext, e.key, nonce)
	if err != nil {
		return nil, err
	}

	result := make([]byte, NonceSize+len(sealed))
	copy(result, nonce)
	copy(result[NonceSize:], sealed)

	return result, nil
}

// Decrypt opens data produced by Encrypt
func (e *Encryptor) Decrypt(data []byte) ([]byte, error) {
	if len(data) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}
	return Open(data[NonceSize:], e.key, data[:NonceSize])
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// Fingerprint returns the hex MD5 digest of data.
// It identifies, it does not protect: never use it for integrity.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
