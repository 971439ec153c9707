// Package domain defines the data subject entities for the PII registry.
// A subject is the natural person every envelope, consent record, and
// deletion request hangs off.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
)

// Subject represents a registered data subject. The email is the external
// reference callers use to locate a subject; after erasure it is replaced by
// an opaque tombstone and the original value is unrecoverable.
type Subject struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
	ErasedAt  *time.Time
}

// RegisterSubjectInput contains the input data for subject registration.
type RegisterSubjectInput struct {
	Email string `json:"email"`
}

// Erased reports whether the subject went through right-to-be-forgotten
// erasure. Erased subjects accept no new records or consents.
func (s *Subject) Erased() bool {
	return s.ErasedAt != nil
}

// TombstoneEmail returns the opaque value that replaces a subject's email on
// erasure. It keeps the unique constraint satisfied without retaining PII.
func TombstoneEmail(id uuid.UUID) string {
	return fmt.Sprintf("erased-%s@redacted.invalid", id)
}

// Domain-specific errors for subject operations.
var (
	// ErrSubjectNotFound indicates the requested subject does not exist.
	ErrSubjectNotFound = apperrors.Wrap(apperrors.ErrNotFound, "subject not found")

	// ErrSubjectAlreadyExists indicates a subject with the same email already exists.
	ErrSubjectAlreadyExists = apperrors.Wrap(apperrors.ErrConflict, "subject already exists")

	// ErrSubjectErased indicates the subject completed erasure and can no
	// longer be read or written.
	ErrSubjectErased = apperrors.Wrap(apperrors.ErrForbidden, "subject has been erased")
)
