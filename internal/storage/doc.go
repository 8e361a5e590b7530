// Package storage provides the metadata store for vaultfs.
//
// The metadata artifact is a BBolt database kept on the external medium,
// separate from the container file. It uses two buckets:
//   - config: KDF salt and iterations, timestamps, store ID (unencrypted)
//   - private: the sealed metadata record (nonce || tag || ciphertext of JSON)
//
// The KDF salt is random and independent of the password. Salt, iterations
// and sealed record are written in a single transaction, so a reader never
// observes a record sealed under a salt that is not stored next to it.
//
// The file table lives only here; the container never carries it.
package storage
