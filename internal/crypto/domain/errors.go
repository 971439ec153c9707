package domain

import (
	apperrors "github.com/allisson/piivault/internal/errors"
)

// Cryptographic operation errors. Callers only ever see these coarse
// categories; the underlying cipher errors are never propagated so that
// failure responses cannot be used as a tamper oracle.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is
	// not supported. Supported algorithms: AESGCM (AES-256-GCM) and ChaCha20
	// (ChaCha20-Poly1305).
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = apperrors.Wrap(apperrors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material is not exactly 32 bytes.
	// Master keys and data keys must be 256 bits for both supported AEADs.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an AEAD open failed its authentication
	// check. Wrong key, tampered ciphertext, tampered associated data and a
	// corrupted nonce all surface as this single error so the specific cause
	// is never disclosed.
	//
	// HTTP Status: 403 Forbidden
	ErrDecryptionFailed = apperrors.Wrap(apperrors.ErrForbidden, "decryption failed")

	// ErrKeyDerivation indicates a key encryption key could not be derived,
	// including the case of a configured work factor below the accepted floor.
	//
	// HTTP Status: 500 Internal Server Error
	ErrKeyDerivation = apperrors.Wrap(apperrors.ErrInternal, "key derivation failed")

	// ErrMasterKeyNotFound indicates a record references a master key ID that
	// is not present in the keychain. The record may become readable again
	// once the key is restored, so this maps to an unavailable condition
	// rather than a permanent failure.
	//
	// HTTP Status: 503 Service Unavailable
	ErrMasterKeyNotFound = apperrors.Wrap(apperrors.ErrUnavailable, "master key not found in keychain")

	// ErrMalformedWrappedKey indicates a wrapped key blob does not parse into
	// its iteration count, nonce and sealed key sections.
	//
	// HTTP Status: 500 Internal Server Error
	ErrMalformedWrappedKey = apperrors.Wrap(apperrors.ErrInternal, "malformed wrapped key")
)

// Master keychain loading errors. These occur at process startup and abort
// boot rather than surfacing through the API.
var (
	ErrMasterKeysNotSet        = apperrors.New("MASTER_KEYS is not set")
	ErrActiveMasterKeyIDNotSet = apperrors.New("ACTIVE_MASTER_KEY_ID is not set")
	ErrInvalidMasterKeysFormat = apperrors.New("invalid MASTER_KEYS format, expected comma-separated id:base64key pairs")
	ErrInvalidMasterKeyBase64  = apperrors.New("invalid master key base64")
	ErrActiveMasterKeyNotFound = apperrors.New("active master key not found in MASTER_KEYS")

	// ErrKMSUnavailable indicates the configured KMS keeper could not be
	// opened or could not unseal a master key entry.
	ErrKMSUnavailable = apperrors.Wrap(apperrors.ErrUnavailable, "kms keeper unavailable")
)
