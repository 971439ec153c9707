package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	"github.com/allisson/piivault/internal/database"
	"github.com/allisson/piivault/internal/subject/domain"
	appValidation "github.com/allisson/piivault/internal/validation"
)

// SubjectUseCaseImpl handles subject registry business logic.
type SubjectUseCaseImpl struct {
	txManager    database.TxManager
	subjectRepo  SubjectRepository
	auditUseCase auditUseCase.AuditUseCase
}

// NewSubjectUseCase creates a new SubjectUseCaseImpl.
func NewSubjectUseCase(
	txManager database.TxManager,
	subjectRepo SubjectRepository,
	auditUC auditUseCase.AuditUseCase,
) SubjectUseCase {
	return &SubjectUseCaseImpl{
		txManager:    txManager,
		subjectRepo:  subjectRepo,
		auditUseCase: auditUC,
	}
}

// validateRegisterSubjectInput validates the registration input.
func (uc *SubjectUseCaseImpl) validateRegisterSubjectInput(input domain.RegisterSubjectInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new subject and its registration audit entry in one
// transaction. The email never reaches the audit detail, only the subject id
// does.
func (uc *SubjectUseCaseImpl) Register(
	ctx context.Context,
	input domain.RegisterSubjectInput,
	actor string,
) (*domain.Subject, error) {
	if err := uc.validateRegisterSubjectInput(input); err != nil {
		return nil, err
	}

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		CreatedAt: time.Now().UTC(),
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		// Create subject - repository will return domain errors
		if err := uc.subjectRepo.Create(ctx, subject); err != nil {
			return err
		}

		entry := &auditDomain.Entry{
			ActorID:   actor,
			Action:    auditDomain.ActionSubjectRegister,
			SubjectID: &subject.ID,
			Outcome:   auditDomain.OutcomeSuccess,
		}
		return uc.auditUseCase.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return subject, nil
}

// Get retrieves a subject by ID. Erased subjects are returned with their
// tombstone email so deletion status stays queryable.
func (uc *SubjectUseCaseImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	return uc.subjectRepo.GetByID(ctx, id)
}

// GetByEmail retrieves a subject by its external email reference.
func (uc *SubjectUseCaseImpl) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	return uc.subjectRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}
