// Package service provides the cryptographic services behind envelope
// encryption: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), per-record data
// key wrapping and KMS access.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and
	// a fresh random nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD. Tampered
	// ciphertext, nonce or AAD surfaces as cryptoDomain.ErrDecryptionFailed.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyWrapper manages per-record data keys. Every sealed record gets a fresh
// data key, which is wrapped under a key encryption key derived from a master
// key with PBKDF2 and a random salt. Only the wrapped form is ever persisted.
type KeyWrapper interface {
	// GenerateDataKey returns a fresh random 32-byte data key. The caller is
	// responsible for zeroing it after use.
	GenerateDataKey() ([]byte, error)

	// Wrap seals dataKey under a key encryption key derived from masterKey
	// and a fresh random salt. It returns the opaque wrapped blob and the
	// salt, both safe to persist. The master key ID is bound into the blob as
	// associated data, so a wrapped key cannot be re-attributed to a
	// different master key.
	Wrap(masterKey *cryptoDomain.MasterKey, dataKey []byte, alg cryptoDomain.Algorithm) (wrapped, salt []byte, err error)

	// Unwrap recovers the data key from a wrapped blob. Any tampering with
	// the blob, the salt or the master key association surfaces as
	// cryptoDomain.ErrDecryptionFailed with no further detail.
	Unwrap(masterKey *cryptoDomain.MasterKey, wrapped, salt []byte, alg cryptoDomain.Algorithm) ([]byte, error)
}

// KMSService defines the interface for opening connections to Key Management
// Services used to unseal master keys.
type KMSService interface {
	// OpenKeeper opens a KMS keeper for the given key URI.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
