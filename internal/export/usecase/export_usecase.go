// Package usecase implements subject data exports: the GDPR-style access
// bundle with everything the engine holds about one subject.
package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	exportDomain "github.com/allisson/piivault/internal/export/domain"
)

// exportBatchSize is how many envelopes Export loads per page.
const exportBatchSize = 100

// ExportUseCaseImpl handles subject export business logic.
type ExportUseCaseImpl struct {
	subjectRepo         SubjectRepository
	envelopeStore       EnvelopeStore
	consentHistory      ConsentHistory
	deletionRequestRepo DeletionRequestRepository
	auditUseCase        auditUseCase.AuditUseCase
	encryptor           Encryptor
}

// NewExportUseCase creates a new ExportUseCaseImpl. encryptor may be nil, in
// which case Encode returns plaintext JSON.
func NewExportUseCase(
	subjectRepo SubjectRepository,
	envelopeStore EnvelopeStore,
	consentHistory ConsentHistory,
	deletionRequestRepo DeletionRequestRepository,
	auditUC auditUseCase.AuditUseCase,
	encryptor Encryptor,
) ExportUseCase {
	return &ExportUseCaseImpl{
		subjectRepo:         subjectRepo,
		envelopeStore:       envelopeStore,
		consentHistory:      consentHistory,
		deletionRequestRepo: deletionRequestRepo,
		auditUseCase:        auditUC,
		encryptor:           encryptor,
	}
}

// Export assembles the data access bundle for one subject. Destroyed records
// are included with metadata only; live records are decrypted through the
// envelope store so each open is audited in its own right.
func (uc *ExportUseCaseImpl) Export(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) (*exportDomain.Bundle, error) {
	subject, err := uc.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	records, err := uc.collectRecords(ctx, subjectID, actor)
	if err != nil {
		return nil, err
	}

	consents, err := uc.consentHistory.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	consentData := make([]exportDomain.ConsentData, 0, len(consents))
	for _, record := range consents {
		consentData = append(consentData, exportDomain.ConsentData{
			Purpose:   record.Purpose,
			Granted:   record.Granted,
			CreatedAt: record.CreatedAt,
		})
	}

	requests, err := uc.deletionRequestRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	requestData := make([]exportDomain.DeletionRequestData, 0, len(requests))
	for _, request := range requests {
		requestData = append(requestData, exportDomain.DeletionRequestData{
			ID:          request.ID.String(),
			Status:      string(request.Status),
			RequestedAt: request.RequestedAt,
			ProcessedAt: request.ProcessedAt,
		})
	}

	bundle := &exportDomain.Bundle{
		Subject: exportDomain.SubjectData{
			ID:        subject.ID.String(),
			Email:     subject.Email,
			CreatedAt: subject.CreatedAt,
			ErasedAt:  subject.ErasedAt,
		},
		Records:          records,
		Consents:         consentData,
		DeletionRequests: requestData,
		ExportedAt:       time.Now().UTC(),
	}

	entry := &auditDomain.Entry{
		ActorID:   actor,
		Action:    auditDomain.ActionSubjectExport,
		SubjectID: &subjectID,
		Outcome:   auditDomain.OutcomeSuccess,
		Detail: fmt.Sprintf("exported %d records, %d consent records, %d deletion requests",
			len(records), len(consentData), len(requestData)),
	}
	if err := uc.auditUseCase.Record(ctx, entry); err != nil {
		return nil, err
	}

	return bundle, nil
}

// collectRecords pages through the subject's envelopes and decrypts the live
// ones.
func (uc *ExportUseCaseImpl) collectRecords(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) ([]exportDomain.RecordData, error) {
	records := []exportDomain.RecordData{}
	offset := 0

	for {
		envelopes, err := uc.envelopeStore.ListBySubject(ctx, subjectID, offset, exportBatchSize)
		if err != nil {
			return nil, err
		}

		for _, envelope := range envelopes {
			record := exportDomain.RecordData{
				ID:          envelope.ID.String(),
				Label:       envelope.Label,
				AlgorithmID: string(envelope.AlgorithmID),
				CreatedAt:   envelope.CreatedAt,
				DestroyedAt: envelope.DestroyedAt,
			}

			if !envelope.Destroyed() {
				plaintext, err := uc.envelopeStore.Open(ctx, envelope.ID, "", actor)
				if err != nil {
					return nil, err
				}
				record.Data = base64.StdEncoding.EncodeToString(plaintext)
			}

			records = append(records, record)
		}

		if len(envelopes) < exportBatchSize {
			return records, nil
		}
		offset += exportBatchSize
	}
}

// Encode serializes a bundle to JSON and encrypts it when a recipient is
// configured.
func (uc *ExportUseCaseImpl) Encode(bundle *exportDomain.Bundle) ([]byte, bool, error) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return nil, false, fmt.Errorf("encoding export bundle: %w", err)
	}

	if uc.encryptor == nil {
		return data, false, nil
	}

	ciphertext, err := uc.encryptor.Encrypt(data)
	if err != nil {
		return nil, false, err
	}

	return ciphertext, true, nil
}
