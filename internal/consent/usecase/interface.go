package usecase

import (
	"context"

	"github.com/google/uuid"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// ConsentRepository defines the persistence operations consent use cases need.
type ConsentRepository interface {
	// Create appends a new consent record. Records are never updated.
	Create(ctx context.Context, record *consentDomain.ConsentRecord) error

	// GetLatest retrieves the most recent record for a subject and purpose.
	GetLatest(ctx context.Context, subjectID uuid.UUID, purpose string) (*consentDomain.ConsentRecord, error)

	// ListBySubject retrieves the full consent history, oldest first.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*consentDomain.ConsentRecord, error)

	// ListCurrent retrieves the latest record per purpose.
	ListCurrent(ctx context.Context, subjectID uuid.UUID) ([]*consentDomain.ConsentRecord, error)
}

// SubjectRepository defines the subject operations consent use cases need.
type SubjectRepository interface {
	// GetByID retrieves a subject by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)

	// Lock loads the subject row with a row lock. Must run inside a
	// transaction.
	Lock(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)
}

// ConsentUseCase defines the consent registry operations. State is
// append-only: the latest record per (subject, purpose) wins, and a purpose
// with no record is not granted.
type ConsentUseCase interface {
	// SetConsent appends a consent record and its audit entry in one
	// transaction, holding the subject row lock.
	SetConsent(ctx context.Context, subjectID uuid.UUID, purpose string, granted bool, actor string) (*consentDomain.ConsentRecord, error)

	// IsGranted reports whether the latest record for the purpose grants
	// access. No record means false.
	IsGranted(ctx context.Context, subjectID uuid.UUID, purpose string) (bool, error)

	// RevokeAll appends granted=false records for every purpose whose latest
	// record grants. Joins the caller's transaction when one is active.
	RevokeAll(ctx context.Context, subjectID uuid.UUID, actor string) error

	// ListBySubject retrieves the full consent history for export.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*consentDomain.ConsentRecord, error)

	// ListCurrent retrieves the current consent state per purpose.
	ListCurrent(ctx context.Context, subjectID uuid.UUID) ([]*consentDomain.ConsentRecord, error)
}
