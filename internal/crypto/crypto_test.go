package crypto

import (
	"bytes"
	"errors"
	"testing"
)

const testIters = 1000

func TestDeriveKeyMaterial(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1, nonce1 := DeriveKeyMaterial([]byte("password"), salt, testIters)
	if len(key1) != KeySize {
		t.Fatalf("key length = %d, want %d", len(key1), KeySize)
	}
	if len(nonce1) != NonceSize {
		t.Fatalf("nonce length = %d, want %d", len(nonce1), NonceSize)
	}

	key2, nonce2 := DeriveKeyMaterial([]byte("password"), salt, testIters)
	if !bytes.Equal(key1, key2) || !bytes.Equal(nonce1, nonce2) {
		t.Error("derivation should be deterministic for the same password and salt")
	}

	key3, _ := DeriveKeyMaterial([]byte("password"), []byte("fedcba9876543210"), testIters)
	if bytes.Equal(key1, key3) {
		t.Error("different salts should produce different keys")
	}

	key4, _ := DeriveKeyMaterial([]byte("other"), salt, testIters)
	if bytes.Equal(key1, key4) {
		t.Error("different passwords should produce different keys")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, nonce := DeriveKeyMaterial([]byte("pw"), []byte("salt-salt-salt-s"), testIters)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello")},
		{"binary", []byte{0x00, 0xFF, 0x10, 0x00, 0x7F}},
		{"large", bytes.Repeat([]byte("abcdefgh"), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.plaintext, key, nonce)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(sealed) != len(tt.plaintext)+TagSize {
				t.Errorf("sealed length = %d, want %d", len(sealed), len(tt.plaintext)+TagSize)
			}

			opened, err := Open(sealed, key, nonce)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(opened, tt.plaintext) {
				t.Errorf("round trip mismatch: got %x, want %x", opened, tt.plaintext)
			}
		})
	}
}

func TestOpenFailures(t *testing.T) {
	key, nonce := DeriveKeyMaterial([]byte("pw"), []byte("salt-salt-salt-s"), testIters)
	otherKey, otherNonce := DeriveKeyMaterial([]byte("wrong"), []byte("salt-salt-salt-s"), testIters)

	sealed, err := Seal([]byte("secret data"), key, nonce)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01

	tests := []struct {
		name  string
		data  []byte
		key   []byte
		nonce []byte
	}{
		{"wrong key", sealed, otherKey, nonce},
		{"wrong nonce", sealed, key, otherNonce},
		{"tampered ciphertext", tampered, key, nonce},
		{"truncated", sealed[:TagSize-1], key, nonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data, tt.key, tt.nonce)
			if !errors.Is(err, ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	}
}

func TestEncryptorFreshNonce(t *testing.T) {
	kdf, err := NewKDF(testIters)
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	enc := NewEncryptor(kdf.DeriveKey([]byte("pw")))
	defer enc.Destroy()

	plaintext := []byte("same content")
	a, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Error("two encryptions should not share a nonce")
	}

	for _, sealed := range [][]byte{a, b} {
		opened, err := enc.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Errorf("Decrypt mismatch: got %s", opened)
		}
	}

	if _, err := enc.Decrypt(a[:NonceSize]); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext for short input, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	got := Fingerprint([]byte("abc"))
	if got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("Fingerprint(abc) = %s", got)
	}
	if len(Fingerprint(nil)) != 32 {
		t.Error("fingerprint should be 32 hex characters")
	}
}

func TestNewKDFDefaults(t *testing.T) {
	kdf, err := NewKDF(0)
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if kdf.Iterations != DefaultIters {
		t.Errorf("Iterations = %d, want %d", kdf.Iterations, DefaultIters)
	}
	if len(kdf.Salt) != SaltSize {
		t.Errorf("Salt length = %d, want %d", len(kdf.Salt), SaltSize)
	}
}
