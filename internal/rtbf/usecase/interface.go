package usecase

import (
	"context"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// DeletionRequestRepository defines the persistence operations deletion
// request use cases need.
type DeletionRequestRepository interface {
	// Create inserts a new deletion request. The store rejects a second
	// active request for the same subject.
	Create(ctx context.Context, request *rtbfDomain.DeletionRequest) error

	// GetByID retrieves a deletion request by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*rtbfDomain.DeletionRequest, error)

	// GetLatestBySubject retrieves the most recently submitted deletion
	// request for a subject.
	GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*rtbfDomain.DeletionRequest, error)

	// ListByStatus retrieves requests in a given status, oldest first.
	ListByStatus(ctx context.Context, status rtbfDomain.Status, offset, limit int) ([]*rtbfDomain.DeletionRequest, error)

	// Update persists the mutable fields of a deletion request.
	Update(ctx context.Context, request *rtbfDomain.DeletionRequest) error
}

// SubjectRepository defines the subject operations deletion processing needs.
type SubjectRepository interface {
	// GetByID retrieves a subject by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)

	// Lock loads the subject row with a row lock. Must run inside a
	// transaction.
	Lock(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)

	// Anonymize replaces the subject's email with an opaque tombstone and
	// stamps the erasure time.
	Anonymize(ctx context.Context, id uuid.UUID, tombstoneEmail string) error
}

// EnvelopeStore is the slice of the envelope use case deletion processing
// needs: enumerating a subject's envelopes and destroying them. Satisfied by
// the envelope use case.
type EnvelopeStore interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error)
	Destroy(ctx context.Context, envelopeID uuid.UUID, actor string) error
}

// ConsentRevoker revokes every granted consent purpose for a subject.
// Satisfied by the consent use case.
type ConsentRevoker interface {
	RevokeAll(ctx context.Context, subjectID uuid.UUID, actor string) error
}

// DeletionRequestUseCase drives the right-to-be-forgotten state machine:
// Pending -> Processing -> Completed or Failed, with bounded retries on
// failure and idempotent re-processing.
type DeletionRequestUseCase interface {
	// Submit creates a pending deletion request for a subject. A subject with
	// an active (pending or processing) request is rejected with a conflict,
	// never silently merged.
	Submit(ctx context.Context, subjectID uuid.UUID, actor string) (*rtbfDomain.DeletionRequest, error)

	// Process executes a deletion request: under the subject row lock it
	// destroys every envelope, revokes all consents and anonymizes the
	// subject, then marks the request completed. Processing a completed
	// request is a no-op success. A failed request beyond its retry budget is
	// rejected until an operator intervenes.
	Process(ctx context.Context, requestID uuid.UUID, actor string) (*rtbfDomain.DeletionRequest, error)

	// Get retrieves a deletion request by id.
	Get(ctx context.Context, requestID uuid.UUID) (*rtbfDomain.DeletionRequest, error)

	// ListByStatus retrieves requests in a given status, oldest first.
	ListByStatus(ctx context.Context, status rtbfDomain.Status, offset, limit int) ([]*rtbfDomain.DeletionRequest, error)
}
