// Package crypto provides cryptographic operations for vaultfs.
//
// Key derivation uses PBKDF2-HMAC-SHA256 producing 44 bytes:
//   - 32-byte AES-256 key
//   - 12-byte nonce (returned by DeriveKeyMaterial, only used by Seal/Open callers)
//
// Encryption uses AES-256-GCM. Seal/Open work on tag || ciphertext with a
// caller-supplied nonce. Encryptor draws a random nonce per call and
// prepends it, so rewriting the same artifact never reuses a nonce.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
