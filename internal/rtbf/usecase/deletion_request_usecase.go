// Package usecase implements the right-to-be-forgotten processor. A deletion
// request moves Pending -> Processing -> Completed or Failed; processing
// destroys every envelope, revokes all consents and anonymizes the subject
// under the subject row lock, so erasure never races a concurrent seal.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	"github.com/allisson/piivault/internal/database"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// destroyBatchSize is how many envelopes Process loads per page while
// destroying a subject's records.
const destroyBatchSize = 100

// DeletionRequestUseCaseImpl handles deletion request business logic.
type DeletionRequestUseCaseImpl struct {
	txManager           database.TxManager
	deletionRequestRepo DeletionRequestRepository
	subjectRepo         SubjectRepository
	envelopeStore       EnvelopeStore
	consentRevoker      ConsentRevoker
	auditUseCase        auditUseCase.AuditUseCase
	maxAttempts         int
}

// NewDeletionRequestUseCase creates a new DeletionRequestUseCaseImpl.
// maxAttempts bounds how often a failed request may be re-processed; values
// below one fall back to the domain default.
func NewDeletionRequestUseCase(
	txManager database.TxManager,
	deletionRequestRepo DeletionRequestRepository,
	subjectRepo SubjectRepository,
	envelopeStore EnvelopeStore,
	consentRevoker ConsentRevoker,
	auditUC auditUseCase.AuditUseCase,
	maxAttempts int,
) DeletionRequestUseCase {
	if maxAttempts < 1 {
		maxAttempts = rtbfDomain.DefaultMaxAttempts
	}
	return &DeletionRequestUseCaseImpl{
		txManager:           txManager,
		deletionRequestRepo: deletionRequestRepo,
		subjectRepo:         subjectRepo,
		envelopeStore:       envelopeStore,
		consentRevoker:      consentRevoker,
		auditUseCase:        auditUC,
		maxAttempts:         maxAttempts,
	}
}

// Submit creates a pending deletion request under the subject row lock, with
// its audit entry in the same transaction. The check for an existing active
// request runs under the same lock; the partial unique index in the store is
// the backstop for anything that slips past it.
func (uc *DeletionRequestUseCaseImpl) Submit(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) (*rtbfDomain.DeletionRequest, error) {
	request := &rtbfDomain.DeletionRequest{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   subjectID,
		Status:      rtbfDomain.StatusPending,
		RequestedAt: time.Now().UTC(),
	}

	err := uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		subject, err := uc.subjectRepo.Lock(txCtx, subjectID)
		if err != nil {
			return err
		}
		if subject.Erased() {
			return subjectDomain.ErrSubjectErased
		}

		latest, err := uc.deletionRequestRepo.GetLatestBySubject(txCtx, subjectID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if latest != nil && latest.Active() {
			return rtbfDomain.ErrActiveRequestExists
		}

		if err := uc.deletionRequestRepo.Create(txCtx, request); err != nil {
			return err
		}

		entry := &auditDomain.Entry{
			ActorID:   actor,
			Action:    auditDomain.ActionDeletionSubmit,
			SubjectID: &subjectID,
			Outcome:   auditDomain.OutcomeSuccess,
			Detail:    "deletion request submitted",
		}
		return uc.auditUseCase.Record(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// Process executes the erasure for one deletion request.
//
// Idempotence and retries: a completed request is a no-op success; a failed
// request beyond its retry budget is rejected with ErrRetryExhausted; a
// processing request is resumed, which covers a worker crash between the
// claim and the erasure transaction. At-least-once delivery from the work
// queue is therefore safe.
//
// The claim (status and attempt count) commits before the erasure starts, so
// failure accounting survives a crash mid-erasure. The erasure itself runs in
// one transaction under the subject row lock: destroyed envelopes, revoked
// consents, the subject tombstone, the completion and its audit entry all
// commit together, and a concurrent seal for the subject blocks until the
// outcome is durable.
func (uc *DeletionRequestUseCaseImpl) Process(
	ctx context.Context,
	requestID uuid.UUID,
	actor string,
) (*rtbfDomain.DeletionRequest, error) {
	request, err := uc.deletionRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch request.Status {
	case rtbfDomain.StatusCompleted:
		return request, nil
	case rtbfDomain.StatusFailed:
		if !request.Retryable(uc.maxAttempts) {
			return nil, rtbfDomain.ErrRetryExhausted
		}
	case rtbfDomain.StatusProcessing:
		// Resume without a fresh claim; the attempt was already counted.
	default:
	}

	if request.Status != rtbfDomain.StatusProcessing {
		request.Status = rtbfDomain.StatusProcessing
		request.Attempts++
		if err := uc.deletionRequestRepo.Update(ctx, request); err != nil {
			return nil, err
		}
	}

	if err := uc.erase(ctx, request, actor); err != nil {
		return nil, uc.markFailed(ctx, request, actor, err)
	}

	return request, nil
}

// erase performs the destructive transaction for a claimed request.
func (uc *DeletionRequestUseCaseImpl) erase(
	ctx context.Context,
	request *rtbfDomain.DeletionRequest,
	actor string,
) error {
	return uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := uc.subjectRepo.Lock(txCtx, request.SubjectID); err != nil {
			return err
		}

		destroyed, err := uc.destroyEnvelopes(txCtx, request.SubjectID, actor)
		if err != nil {
			return err
		}

		if err := uc.consentRevoker.RevokeAll(txCtx, request.SubjectID, actor); err != nil {
			return err
		}

		tombstone := subjectDomain.TombstoneEmail(request.SubjectID)
		if err := uc.subjectRepo.Anonymize(txCtx, request.SubjectID, tombstone); err != nil {
			return err
		}

		now := time.Now().UTC()
		request.Status = rtbfDomain.StatusCompleted
		request.LastError = ""
		request.ProcessedAt = &now
		if err := uc.deletionRequestRepo.Update(txCtx, request); err != nil {
			return err
		}

		entry := &auditDomain.Entry{
			ActorID:   actor,
			Action:    auditDomain.ActionDeletionProcess,
			SubjectID: &request.SubjectID,
			Outcome:   auditDomain.OutcomeSuccess,
			Detail:    fmt.Sprintf("erasure completed, %d envelopes destroyed", destroyed),
		}
		return uc.auditUseCase.Record(txCtx, entry)
	})
}

// destroyEnvelopes pages through the subject's envelopes and destroys each
// one. Already-destroyed envelopes are counted as done, which is what makes
// re-processing a failed request safe.
func (uc *DeletionRequestUseCaseImpl) destroyEnvelopes(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) (int, error) {
	destroyed := 0
	offset := 0

	for {
		envelopes, err := uc.envelopeStore.ListBySubject(ctx, subjectID, offset, destroyBatchSize)
		if err != nil {
			return destroyed, err
		}
		if len(envelopes) == 0 {
			return destroyed, nil
		}

		for _, envelope := range envelopes {
			if envelope.Destroyed() {
				continue
			}
			if err := uc.envelopeStore.Destroy(ctx, envelope.ID, actor); err != nil {
				return destroyed, err
			}
			destroyed++
		}

		if len(envelopes) < destroyBatchSize {
			return destroyed, nil
		}
		offset += destroyBatchSize
	}
}

// markFailed records a processing failure. The erasure transaction has rolled
// back by the time this runs, so the failure bookkeeping and its audit entry
// commit on their own. The original processing error is returned, annotated
// with any bookkeeping failure.
func (uc *DeletionRequestUseCaseImpl) markFailed(
	ctx context.Context,
	request *rtbfDomain.DeletionRequest,
	actor string,
	processErr error,
) error {
	request.Status = rtbfDomain.StatusFailed
	request.LastError = processErr.Error()

	if err := uc.deletionRequestRepo.Update(ctx, request); err != nil {
		return fmt.Errorf("erasure failed: %w (additionally, recording the failure failed: %v)", processErr, err)
	}

	detail := fmt.Sprintf("erasure attempt %d failed", request.Attempts)
	if request.Attempts >= uc.maxAttempts {
		detail += ", retries exhausted, operator intervention required"
	}
	entry := &auditDomain.Entry{
		ActorID:   actor,
		Action:    auditDomain.ActionDeletionProcess,
		SubjectID: &request.SubjectID,
		Outcome:   auditDomain.OutcomeError,
		Detail:    detail,
	}
	if err := uc.auditUseCase.Record(ctx, entry); err != nil {
		return fmt.Errorf("erasure failed: %w (additionally, auditing the failure failed: %v)", processErr, err)
	}

	return processErr
}

// Get retrieves a deletion request by id.
func (uc *DeletionRequestUseCaseImpl) Get(ctx context.Context, requestID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	return uc.deletionRequestRepo.GetByID(ctx, requestID)
}

// ListByStatus retrieves requests in a given status, oldest first.
func (uc *DeletionRequestUseCaseImpl) ListByStatus(
	ctx context.Context,
	status rtbfDomain.Status,
	offset, limit int,
) ([]*rtbfDomain.DeletionRequest, error) {
	return uc.deletionRequestRepo.ListByStatus(ctx, status, offset, limit)
}

func isNotFound(err error) bool {
	return errors.Is(err, rtbfDomain.ErrDeletionRequestNotFound)
}
