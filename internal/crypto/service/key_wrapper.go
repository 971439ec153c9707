package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/allisson/piivault/internal/config"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
)

// Wrapped key blob layout: a 4-byte big-endian PBKDF2 iteration count, a
// 12-byte nonce, then the sealed data key. Embedding the iteration count
// keeps old envelopes readable after the configured work factor is raised.
// Tampering with the embedded count changes the derived key encryption key,
// so the authentication check fails exactly as it does for ciphertext edits.
const (
	wrapIterationsSize = 4
	wrapNonceSize      = 12
	wrapHeaderSize     = wrapIterationsSize + wrapNonceSize

	// kekSize is the size of the derived key encryption key.
	kekSize = 32

	// maxKDFIterations bounds the embedded iteration count so a corrupted
	// blob cannot make Unwrap spin on an absurd work factor.
	maxKDFIterations = 10_000_000
)

// KeyWrapperService implements the KeyWrapper interface.
//
// Wrapping works in two steps: a key encryption key is derived from the
// master key with PBKDF2-HMAC-SHA256 and a fresh random salt, then the data
// key is sealed under that KEK with the requested AEAD cipher. The derived
// KEK lives only for the duration of the call and is zeroed before returning.
type KeyWrapperService struct {
	aeadManager AEADManager
	iterations  int
}

// NewKeyWrapper creates a KeyWrapperService using the given AEADManager and
// PBKDF2 iteration count. Iteration counts below config.MinKDFIterations are
// rejected so a misconfigured deployment cannot silently weaken every
// envelope it writes.
func NewKeyWrapper(aeadManager AEADManager, iterations int) (*KeyWrapperService, error) {
	if iterations < config.MinKDFIterations {
		return nil, fmt.Errorf(
			"%w: %d iterations is below the minimum of %d",
			cryptoDomain.ErrKeyDerivation,
			iterations,
			config.MinKDFIterations,
		)
	}
	if iterations > maxKDFIterations {
		return nil, fmt.Errorf(
			"%w: %d iterations is above the maximum of %d",
			cryptoDomain.ErrKeyDerivation,
			iterations,
			maxKDFIterations,
		)
	}

	return &KeyWrapperService{
		aeadManager: aeadManager,
		iterations:  iterations,
	}, nil
}

// GenerateDataKey returns a fresh random 32-byte data key.
func (kw *KeyWrapperService) GenerateDataKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.DataKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	return key, nil
}

// Wrap seals dataKey under a KEK derived from masterKey and a fresh random
// salt. The master key ID goes into the AEAD associated data, binding the
// wrapped blob to the key that produced it.
func (kw *KeyWrapperService) Wrap(
	masterKey *cryptoDomain.MasterKey,
	dataKey []byte,
	alg cryptoDomain.Algorithm,
) (wrapped, salt []byte, err error) {
	if len(dataKey) != cryptoDomain.DataKeySize {
		return nil, nil, cryptoDomain.ErrInvalidKeySize
	}

	salt = make([]byte, cryptoDomain.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	kek := deriveKek(masterKey.Key, salt, kw.iterations)
	defer cryptoDomain.Zero(kek)

	aead, err := kw.aeadManager.CreateCipher(kek, alg)
	if err != nil {
		return nil, nil, err
	}

	sealed, nonce, err := aead.Encrypt(dataKey, []byte(masterKey.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to wrap data key: %w", err)
	}
	if len(nonce) != wrapNonceSize {
		return nil, nil, fmt.Errorf("unexpected nonce size %d from %s", len(nonce), alg)
	}

	wrapped = make([]byte, wrapHeaderSize, wrapHeaderSize+len(sealed))
	binary.BigEndian.PutUint32(wrapped[:wrapIterationsSize], uint32(kw.iterations))
	copy(wrapped[wrapIterationsSize:], nonce)
	wrapped = append(wrapped, sealed...)

	return wrapped, salt, nil
}

// Unwrap recovers the data key from a wrapped blob. The iteration count
// embedded in the blob drives the derivation, so envelopes written under an
// older work factor remain readable. Any authentication failure surfaces as
// cryptoDomain.ErrDecryptionFailed, structural corruption of the blob as
// cryptoDomain.ErrMalformedWrappedKey.
func (kw *KeyWrapperService) Unwrap(
	masterKey *cryptoDomain.MasterKey,
	wrapped, salt []byte,
	alg cryptoDomain.Algorithm,
) ([]byte, error) {
	if len(salt) != cryptoDomain.SaltSize {
		return nil, cryptoDomain.ErrMalformedWrappedKey
	}
	if len(wrapped) <= wrapHeaderSize {
		return nil, cryptoDomain.ErrMalformedWrappedKey
	}

	iterations := int(binary.BigEndian.Uint32(wrapped[:wrapIterationsSize]))
	if iterations < config.MinKDFIterations || iterations > maxKDFIterations {
		return nil, cryptoDomain.ErrMalformedWrappedKey
	}

	nonce := wrapped[wrapIterationsSize:wrapHeaderSize]
	sealed := wrapped[wrapHeaderSize:]

	kek := deriveKek(masterKey.Key, salt, iterations)
	defer cryptoDomain.Zero(kek)

	aead, err := kw.aeadManager.CreateCipher(kek, alg)
	if err != nil {
		return nil, err
	}

	dataKey, err := aead.Decrypt(sealed, nonce, []byte(masterKey.ID))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return dataKey, nil
}

func deriveKek(masterKey, salt []byte, iterations int) []byte {
	return pbkdf2.Key(masterKey, salt, iterations, kekSize, sha256.New)
}
