// Package domain contains the sealed envelope entity, the persisted unit of
// PII protection. An envelope is immutable after creation: an update seals a
// new envelope for the same (subject, label), and destruction scrubs the key
// material rather than deleting the row.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// Envelope is a self-describing encrypted record. The wrapped data key is the
// only path to the ciphertext, so scrubbing it is cryptographic erasure even
// while ciphertext bytes physically remain.
type Envelope struct {
	ID                uuid.UUID              `json:"id"`
	SubjectID         uuid.UUID              `json:"subject_id"`
	Label             string                 `json:"label"`
	Ciphertext        []byte                 `json:"-"`
	Nonce             []byte                 `json:"-"`
	WrappedKey        []byte                 `json:"-"`
	KeyDerivationSalt []byte                 `json:"-"`
	AlgorithmID       cryptoDomain.Algorithm `json:"algorithm_id"`
	MasterKeyID       string                 `json:"master_key_id"`
	CreatedAt         time.Time              `json:"created_at"`
	DestroyedAt       *time.Time             `json:"destroyed_at,omitempty"`
}

// Destroyed reports whether the envelope's key material has been scrubbed.
func (e *Envelope) Destroyed() bool {
	return e.DestroyedAt != nil
}

var (
	// ErrEnvelopeNotFound indicates the requested envelope does not exist.
	ErrEnvelopeNotFound = apperrors.Wrap(apperrors.ErrNotFound, "envelope not found")

	// ErrEnvelopeDestroyed indicates the envelope's key material has been
	// scrubbed and its plaintext is permanently unrecoverable.
	ErrEnvelopeDestroyed = apperrors.Wrap(apperrors.ErrForbidden, "envelope has been destroyed")

	// ErrEnvelopeTampered indicates authentication failed while unwrapping the
	// data key or decrypting the ciphertext. The specific stage is never
	// disclosed.
	ErrEnvelopeTampered = apperrors.Wrap(apperrors.ErrForbidden, "envelope authentication failed")

	// ErrEnvelopeCorrupt indicates the stored envelope is structurally invalid
	// (missing key material on a live envelope, unknown algorithm).
	ErrEnvelopeCorrupt = apperrors.Wrap(apperrors.ErrInternal, "envelope corrupt")
)
