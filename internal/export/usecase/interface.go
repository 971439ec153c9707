package usecase

import (
	"context"

	"github.com/google/uuid"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	exportDomain "github.com/allisson/piivault/internal/export/domain"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// SubjectRepository defines the subject lookup the export needs.
type SubjectRepository interface {
	// GetByID retrieves a subject by its unique identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*subjectDomain.Subject, error)
}

// EnvelopeStore is the slice of the envelope use case the export needs:
// enumerating a subject's envelopes and decrypting the live ones. Satisfied by
// the envelope use case, so every open lands in the audit ledger.
type EnvelopeStore interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error)
	Open(ctx context.Context, envelopeID uuid.UUID, purpose string, actor string) ([]byte, error)
}

// ConsentHistory retrieves the full append-only consent history for a
// subject. Satisfied by the consent use case.
type ConsentHistory interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*consentDomain.ConsentRecord, error)
}

// DeletionRequestRepository defines the deletion request lookups the export
// needs.
type DeletionRequestRepository interface {
	// ListBySubject retrieves every deletion request for a subject, newest
	// first.
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*rtbfDomain.DeletionRequest, error)
}

// Encryptor encrypts an encoded export payload for a fixed recipient.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Recipient() string
}

// ExportUseCase assembles subject data access bundles.
type ExportUseCase interface {
	// Export gathers the subject's metadata, decrypted records, consent
	// history and deletion requests into one bundle. Every decrypted record is
	// individually audited through the envelope store, and the export itself is
	// audited.
	Export(ctx context.Context, subjectID uuid.UUID, actor string) (*exportDomain.Bundle, error)

	// Encode serializes a bundle to JSON, encrypting the payload when an
	// encryptor is configured. The encrypted return reports which one happened.
	Encode(bundle *exportDomain.Bundle) (data []byte, encrypted bool, err error)
}
