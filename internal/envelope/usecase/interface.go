package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// EnvelopeRepository defines the persistence operations envelope use cases
// need.
type EnvelopeRepository interface {
	// Create inserts a new envelope.
	Create(ctx context.Context, envelope *envelopeDomain.Envelope) error

	// GetByID retrieves a full envelope including its key material.
	GetByID(ctx context.Context, id uuid.UUID) (*envelopeDomain.Envelope, error)

	// ListBySubject retrieves envelope metadata for a subject, newest first.
	ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error)

	// Scrub blanks the wrapped key and ciphertext and stamps destroyed_at.
	// Returns false when the envelope was already destroyed.
	Scrub(ctx context.Context, id uuid.UUID, destroyedAt time.Time) (bool, error)
}

// SubjectRepository defines the subject operations envelope use cases need.
type SubjectRepository interface {
	// GetByID retrieves a subject by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)

	// Lock loads the subject row with a row lock. Must run inside a
	// transaction.
	Lock(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)
}

// DeletionRequestRepository defines the deletion request lookups envelope use
// cases need for the pre-open status check.
type DeletionRequestRepository interface {
	// GetLatestBySubject retrieves the most recently submitted deletion
	// request for a subject.
	GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*rtbfDomain.DeletionRequest, error)
}

// ConsentChecker answers purpose-based consent questions. A purpose with no
// record is not granted.
type ConsentChecker interface {
	IsGranted(ctx context.Context, subjectID uuid.UUID, purpose string) (bool, error)
}

// EnvelopeUseCase defines the envelope-encrypted PII store operations.
type EnvelopeUseCase interface {
	// Seal encrypts plaintext under a fresh data key and persists the
	// envelope together with its audit entry in one transaction, holding the
	// subject row lock. Erased subjects cannot receive new envelopes.
	Seal(ctx context.Context, subjectID uuid.UUID, label string, plaintext []byte, actor string) (*envelopeDomain.Envelope, error)

	// Open authenticates and decrypts an envelope. When purpose is non-empty
	// the subject's latest consent record for that purpose must grant access.
	// Subjects with a processing or completed deletion request are refused.
	// Every open attempt on an existing envelope is audited; the success
	// entry is written before the plaintext is returned.
	Open(ctx context.Context, envelopeID uuid.UUID, purpose string, actor string) ([]byte, error)

	// Destroy scrubs the envelope's wrapped key and ciphertext, making the
	// plaintext unrecoverable. Destroying an already-destroyed envelope is a
	// no-op success.
	Destroy(ctx context.Context, envelopeID uuid.UUID, actor string) error

	// Get retrieves envelope metadata. Key material and ciphertext never
	// leave the use case.
	Get(ctx context.Context, envelopeID uuid.UUID) (*envelopeDomain.Envelope, error)

	// ListBySubject retrieves envelope metadata for a subject, newest first.
	ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error)
}
