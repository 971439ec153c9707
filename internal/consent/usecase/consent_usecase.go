// Package usecase implements the consent registry business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	"github.com/allisson/piivault/internal/database"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
	appValidation "github.com/allisson/piivault/internal/validation"
)

// ConsentUseCaseImpl handles consent registry business logic.
type ConsentUseCaseImpl struct {
	txManager    database.TxManager
	consentRepo  ConsentRepository
	subjectRepo  SubjectRepository
	auditUseCase auditUseCase.AuditUseCase
}

// NewConsentUseCase creates a new ConsentUseCaseImpl.
func NewConsentUseCase(
	txManager database.TxManager,
	consentRepo ConsentRepository,
	subjectRepo SubjectRepository,
	auditUC auditUseCase.AuditUseCase,
) ConsentUseCase {
	return &ConsentUseCaseImpl{
		txManager:    txManager,
		consentRepo:  consentRepo,
		subjectRepo:  subjectRepo,
		auditUseCase: auditUC,
	}
}

// validatePurpose validates a consent purpose string.
func validatePurpose(purpose string) error {
	err := validation.Validate(purpose,
		validation.Required.Error("purpose is required"),
		appValidation.NotBlank,
		validation.Length(1, 255).Error("purpose must be between 1 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// SetConsent appends a consent record under the subject row lock, with its
// audit entry in the same transaction. Erased subjects are rejected.
func (uc *ConsentUseCaseImpl) SetConsent(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
	granted bool,
	actor string,
) (*consentDomain.ConsentRecord, error) {
	if err := validatePurpose(purpose); err != nil {
		return nil, err
	}

	record := &consentDomain.ConsentRecord{
		ID:        uuid.Must(uuid.NewV7()),
		SubjectID: subjectID,
		Purpose:   strings.TrimSpace(purpose),
		Granted:   granted,
		CreatedAt: time.Now().UTC(),
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		subject, err := uc.subjectRepo.Lock(ctx, subjectID)
		if err != nil {
			return err
		}
		if subject.Erased() {
			return subjectDomain.ErrSubjectErased
		}

		if err := uc.consentRepo.Create(ctx, record); err != nil {
			return err
		}

		entry := &auditDomain.Entry{
			ActorID:   actor,
			Action:    auditDomain.ActionConsentSet,
			SubjectID: &subjectID,
			Outcome:   auditDomain.OutcomeSuccess,
			Detail:    fmt.Sprintf("purpose %q granted=%t", record.Purpose, granted),
		}
		return uc.auditUseCase.Record(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// IsGranted reports the current consent state for a purpose. The latest
// record wins; a subject with no record for the purpose has not granted it.
func (uc *ConsentUseCaseImpl) IsGranted(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
) (bool, error) {
	record, err := uc.consentRepo.GetLatest(ctx, subjectID, strings.TrimSpace(purpose))
	if err != nil {
		if errors.Is(err, consentDomain.ErrConsentRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return record.Granted, nil
}

// RevokeAll appends granted=false records for every purpose whose latest
// record grants, plus a single audit entry. No-op when nothing is granted.
// Joins the caller's transaction so RTBF processing stays atomic with its
// other steps.
func (uc *ConsentUseCaseImpl) RevokeAll(ctx context.Context, subjectID uuid.UUID, actor string) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := uc.subjectRepo.Lock(ctx, subjectID); err != nil {
			return err
		}

		current, err := uc.consentRepo.ListCurrent(ctx, subjectID)
		if err != nil {
			return err
		}

		revoked := 0
		now := time.Now().UTC()
		for _, state := range current {
			if !state.Granted {
				continue
			}

			record := &consentDomain.ConsentRecord{
				ID:        uuid.Must(uuid.NewV7()),
				SubjectID: subjectID,
				Purpose:   state.Purpose,
				Granted:   false,
				CreatedAt: now,
			}
			if err := uc.consentRepo.Create(ctx, record); err != nil {
				return err
			}
			revoked++
		}

		if revoked == 0 {
			return nil
		}

		entry := &auditDomain.Entry{
			ActorID:   actor,
			Action:    auditDomain.ActionConsentRevokeAll,
			SubjectID: &subjectID,
			Outcome:   auditDomain.OutcomeSuccess,
			Detail:    fmt.Sprintf("revoked %d purposes", revoked),
		}
		return uc.auditUseCase.Record(ctx, entry)
	})
}

// ListBySubject retrieves the full consent history, oldest first.
func (uc *ConsentUseCaseImpl) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	if _, err := uc.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	return uc.consentRepo.ListBySubject(ctx, subjectID)
}

// ListCurrent retrieves the latest record per purpose.
func (uc *ConsentUseCaseImpl) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	if _, err := uc.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	return uc.consentRepo.ListCurrent(ctx, subjectID)
}
