// Package domain contains consent registry entities. Consent is append-only:
// the current state for a (subject, purpose) pair is the latest record, and a
// subject with no record for a purpose has not granted it.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
)

// ConsentRecord represents one consent decision for a purpose. Records are
// never updated or deleted; revocation appends a new record with Granted
// false. Seq is assigned by the database and defines record order.
type ConsentRecord struct {
	ID        uuid.UUID `json:"id"`
	Seq       int64     `json:"-"`
	SubjectID uuid.UUID `json:"subject_id"`
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrConsentDenied indicates the latest consent record for the purpose
	// does not grant access, or no record exists.
	ErrConsentDenied = apperrors.Wrap(apperrors.ErrForbidden, "consent denied")

	// ErrConsentRecordNotFound indicates no consent record exists for the
	// subject and purpose.
	ErrConsentRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "consent record not found")
)
