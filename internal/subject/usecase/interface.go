// Package usecase implements the subject registry business logic.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/subject/domain"
)

// SubjectRepository defines the interface for subject persistence operations.
type SubjectRepository interface {
	Create(ctx context.Context, subject *domain.Subject) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subject, error)
}

// SubjectUseCase defines the interface for subject registry business logic.
type SubjectUseCase interface {
	// Register creates a new subject keyed by email and records the
	// registration in the audit ledger within the same transaction.
	Register(ctx context.Context, input domain.RegisterSubjectInput, actor string) (*domain.Subject, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subject, error)
}
