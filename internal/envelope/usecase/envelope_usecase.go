// Package usecase implements the envelope-encrypted PII store. Every sealed
// record gets a fresh data key wrapped under the active master key; destroying
// a record scrubs the wrapped key so the plaintext is cryptographically
// unrecoverable even from backups of the ciphertext.
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
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	cryptoService "github.com/allisson/piivault/internal/crypto/service"
	"github.com/allisson/piivault/internal/database"
	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	apperrors "github.com/allisson/piivault/internal/errors"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
	appValidation "github.com/allisson/piivault/internal/validation"
)

// maxPlaintextBytes is the largest accepted plaintext (64 KiB). Envelopes
// hold field values, not blobs.
const maxPlaintextBytes = 64 * 1024

// EnvelopeUseCaseImpl handles envelope store business logic.
type EnvelopeUseCaseImpl struct {
	txManager           database.TxManager
	envelopeRepo        EnvelopeRepository
	subjectRepo         SubjectRepository
	deletionRequestRepo DeletionRequestRepository
	consentChecker      ConsentChecker
	auditUseCase        auditUseCase.AuditUseCase
	aeadManager         cryptoService.AEADManager
	keyWrapper          cryptoService.KeyWrapper
	masterKeyChain      *cryptoDomain.MasterKeyChain
	algorithm           cryptoDomain.Algorithm
}

// NewEnvelopeUseCase creates a new EnvelopeUseCaseImpl. New envelopes are
// sealed with the given algorithm; existing envelopes are opened with the
// algorithm recorded at seal time.
func NewEnvelopeUseCase(
	txManager database.TxManager,
	envelopeRepo EnvelopeRepository,
	subjectRepo SubjectRepository,
	deletionRequestRepo DeletionRequestRepository,
	consentChecker ConsentChecker,
	auditUC auditUseCase.AuditUseCase,
	aeadManager cryptoService.AEADManager,
	keyWrapper cryptoService.KeyWrapper,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	algorithm cryptoDomain.Algorithm,
) EnvelopeUseCase {
	return &EnvelopeUseCaseImpl{
		txManager:           txManager,
		envelopeRepo:        envelopeRepo,
		subjectRepo:         subjectRepo,
		deletionRequestRepo: deletionRequestRepo,
		consentChecker:      consentChecker,
		auditUseCase:        auditUC,
		aeadManager:         aeadManager,
		keyWrapper:          keyWrapper,
		masterKeyChain:      masterKeyChain,
		algorithm:           algorithm,
	}
}

func (uc *EnvelopeUseCaseImpl) validateSealInput(label string, plaintext []byte) error {
	if err := validation.Validate(label,
		validation.Required.Error("label is required"),
		appValidation.NotBlank,
		validation.Length(1, 255).Error("label must be between 1 and 255 characters"),
	); err != nil {
		return appValidation.WrapValidationError(err)
	}

	err := validation.Validate(plaintext,
		validation.Required.Error("plaintext is required"),
		validation.Length(1, maxPlaintextBytes).Error("plaintext must not exceed 64 KiB"),
	)
	return appValidation.WrapValidationError(err)
}

// record appends a single audit entry. With a transaction in the context the
// entry joins it; otherwise it commits on its own, which is how denial
// entries survive the failed operation they describe.
func (uc *EnvelopeUseCaseImpl) record(
	ctx context.Context,
	actor string,
	action auditDomain.Action,
	subjectID, envelopeID *uuid.UUID,
	outcome auditDomain.Outcome,
	detail string,
) error {
	return uc.auditUseCase.Record(ctx, &auditDomain.Entry{
		ActorID:    actor,
		Action:     action,
		SubjectID:  subjectID,
		EnvelopeID: envelopeID,
		Outcome:    outcome,
		Detail:     detail,
	})
}

// Seal encrypts plaintext for a subject. The crypto work happens before the
// transaction opens; the subject row lock, the erased check, the envelope
// insert and the audit entry share one transaction.
func (uc *EnvelopeUseCaseImpl) Seal(
	ctx context.Context,
	subjectID uuid.UUID,
	label string,
	plaintext []byte,
	actor string,
) (*envelopeDomain.Envelope, error) {
	if err := uc.validateSealInput(label, plaintext); err != nil {
		return nil, err
	}

	if _, err := uc.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	masterKey, found := uc.masterKeyChain.Active()
	if !found {
		return nil, cryptoDomain.ErrMasterKeyNotFound
	}

	dataKey, err := uc.keyWrapper.GenerateDataKey()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	cipher, err := uc.aeadManager.CreateCipher(dataKey, uc.algorithm)
	if err != nil {
		return nil, err
	}

	// AAD binds the ciphertext to the owning subject.
	ciphertext, nonce, err := cipher.Encrypt(plaintext, subjectID[:])
	if err != nil {
		return nil, err
	}

	wrappedKey, salt, err := uc.keyWrapper.Wrap(masterKey, dataKey, uc.algorithm)
	if err != nil {
		return nil, err
	}

	envelope := &envelopeDomain.Envelope{
		ID:                uuid.Must(uuid.NewV7()),
		SubjectID:         subjectID,
		Label:             strings.TrimSpace(label),
		Ciphertext:        ciphertext,
		Nonce:             nonce,
		WrappedKey:        wrappedKey,
		KeyDerivationSalt: salt,
		AlgorithmID:       uc.algorithm,
		MasterKeyID:       masterKey.ID,
		CreatedAt:         time.Now().UTC(),
	}

	err = uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		subject, err := uc.subjectRepo.Lock(txCtx, subjectID)
		if err != nil {
			return err
		}
		if subject.Erased() {
			return subjectDomain.ErrSubjectErased
		}

		if err := uc.envelopeRepo.Create(txCtx, envelope); err != nil {
			return err
		}

		detail := fmt.Sprintf("label %q sealed", envelope.Label)
		return uc.record(txCtx, actor, auditDomain.ActionEnvelopeSeal, &envelope.SubjectID, &envelope.ID, auditDomain.OutcomeSuccess, detail)
	})
	if err != nil {
		if errors.Is(err, subjectDomain.ErrSubjectErased) {
			if auditErr := uc.record(ctx, actor, auditDomain.ActionEnvelopeSeal, &subjectID, nil, auditDomain.OutcomeDenied, "seal refused: subject erased"); auditErr != nil {
				return nil, auditErr
			}
		}
		return nil, err
	}

	return envelope, nil
}

// Open authenticates and decrypts an envelope. Checks run in a fixed order
// before any ciphertext is touched: destruction, deletion status, consent.
// Each refusal and each authentication failure is audited exactly once; the
// success entry is committed before the plaintext leaves this method.
func (uc *EnvelopeUseCaseImpl) Open(
	ctx context.Context,
	envelopeID uuid.UUID,
	purpose string,
	actor string,
) ([]byte, error) {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	subjectID := envelope.SubjectID
	purpose = strings.TrimSpace(purpose)

	if envelope.Destroyed() {
		if auditErr := uc.recordOpenDenied(ctx, actor, envelope, "open refused: envelope destroyed"); auditErr != nil {
			return nil, auditErr
		}
		return nil, envelopeDomain.ErrEnvelopeDestroyed
	}

	if err := uc.checkDeletionStatus(ctx, actor, envelope); err != nil {
		return nil, err
	}

	if purpose != "" {
		granted, err := uc.consentChecker.IsGranted(ctx, subjectID, purpose)
		if err != nil {
			return nil, err
		}
		if !granted {
			detail := fmt.Sprintf("open refused: consent for %q not granted", purpose)
			if auditErr := uc.recordOpenDenied(ctx, actor, envelope, detail); auditErr != nil {
				return nil, auditErr
			}
			return nil, consentDeniedError(purpose)
		}
	}

	masterKey, found := uc.masterKeyChain.Get(envelope.MasterKeyID)
	if !found {
		detail := fmt.Sprintf("open failed: master key %q not loaded", envelope.MasterKeyID)
		if auditErr := uc.record(ctx, actor, auditDomain.ActionEnvelopeOpen, &subjectID, &envelope.ID, auditDomain.OutcomeError, detail); auditErr != nil {
			return nil, auditErr
		}
		return nil, cryptoDomain.ErrMasterKeyNotFound
	}

	plaintext, err := uc.decrypt(masterKey, envelope)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrDecryptionFailed) {
			if auditErr := uc.recordOpenDenied(ctx, actor, envelope, "open refused: envelope authentication failed"); auditErr != nil {
				return nil, auditErr
			}
			return nil, envelopeDomain.ErrEnvelopeTampered
		}
		return nil, err
	}

	detail := "opened"
	if purpose != "" {
		detail = fmt.Sprintf("opened for purpose %q", purpose)
	}
	if err := uc.record(ctx, actor, auditDomain.ActionEnvelopeOpen, &subjectID, &envelope.ID, auditDomain.OutcomeSuccess, detail); err != nil {
		return nil, err
	}

	return plaintext, nil
}

// checkDeletionStatus refuses opens for subjects whose deletion is underway
// or done. The envelope scrub already makes completed deletions unreadable;
// this check keeps the refusal explicit and audited.
func (uc *EnvelopeUseCaseImpl) checkDeletionStatus(ctx context.Context, actor string, envelope *envelopeDomain.Envelope) error {
	request, err := uc.deletionRequestRepo.GetLatestBySubject(ctx, envelope.SubjectID)
	if err != nil {
		if errors.Is(err, rtbfDomain.ErrDeletionRequestNotFound) {
			return nil
		}
		return err
	}

	switch request.Status {
	case rtbfDomain.StatusProcessing:
		if auditErr := uc.recordOpenDenied(ctx, actor, envelope, "open refused: deletion in progress"); auditErr != nil {
			return auditErr
		}
		return rtbfDomain.ErrDeletionInProgress
	case rtbfDomain.StatusCompleted:
		if auditErr := uc.recordOpenDenied(ctx, actor, envelope, "open refused: deletion completed"); auditErr != nil {
			return auditErr
		}
		return rtbfDomain.ErrDeletionCompleted
	default:
		return nil
	}
}

func (uc *EnvelopeUseCaseImpl) recordOpenDenied(ctx context.Context, actor string, envelope *envelopeDomain.Envelope, detail string) error {
	return uc.record(ctx, actor, auditDomain.ActionEnvelopeOpen, &envelope.SubjectID, &envelope.ID, auditDomain.OutcomeDenied, detail)
}

// decrypt unwraps the data key and opens the ciphertext. The recovered data
// key is zeroed before returning.
func (uc *EnvelopeUseCaseImpl) decrypt(masterKey *cryptoDomain.MasterKey, envelope *envelopeDomain.Envelope) ([]byte, error) {
	dataKey, err := uc.keyWrapper.Unwrap(masterKey, envelope.WrappedKey, envelope.KeyDerivationSalt, envelope.AlgorithmID)
	if err != nil {
		if errors.Is(err, cryptoDomain.ErrMalformedWrappedKey) {
			return nil, apperrors.Wrap(envelopeDomain.ErrEnvelopeCorrupt, "wrapped key is malformed")
		}
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	cipher, err := uc.aeadManager.CreateCipher(dataKey, envelope.AlgorithmID)
	if err != nil {
		return nil, apperrors.Wrap(envelopeDomain.ErrEnvelopeCorrupt, err.Error())
	}

	return cipher.Decrypt(envelope.Ciphertext, envelope.Nonce, envelope.SubjectID[:])
}

// Destroy scrubs the envelope's key material. The scrub and its audit entry
// share one transaction; a destroy that finds nothing left to scrub succeeds
// without writing an entry.
func (uc *EnvelopeUseCaseImpl) Destroy(ctx context.Context, envelopeID uuid.UUID, actor string) error {
	return uc.txManager.WithTx(ctx, func(txCtx context.Context) error {
		envelope, err := uc.envelopeRepo.GetByID(txCtx, envelopeID)
		if err != nil {
			return err
		}
		if envelope.Destroyed() {
			return nil
		}

		scrubbed, err := uc.envelopeRepo.Scrub(txCtx, envelope.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !scrubbed {
			// A concurrent destroy won the race.
			return nil
		}

		detail := fmt.Sprintf("label %q scrubbed", envelope.Label)
		return uc.record(txCtx, actor, auditDomain.ActionEnvelopeDestroy, &envelope.SubjectID, &envelope.ID, auditDomain.OutcomeSuccess, detail)
	})
}

// Get retrieves envelope metadata. Key material and ciphertext never leave
// the use case.
func (uc *EnvelopeUseCaseImpl) Get(ctx context.Context, envelopeID uuid.UUID) (*envelopeDomain.Envelope, error) {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, err
	}

	envelope.Ciphertext = nil
	envelope.Nonce = nil
	envelope.WrappedKey = nil
	envelope.KeyDerivationSalt = nil

	return envelope, nil
}

// ListBySubject retrieves envelope metadata for a subject, newest first.
func (uc *EnvelopeUseCaseImpl) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	offset, limit int,
) ([]*envelopeDomain.Envelope, error) {
	if _, err := uc.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}
	return uc.envelopeRepo.ListBySubject(ctx, subjectID, offset, limit)
}

func consentDeniedError(purpose string) error {
	return apperrors.Wrap(consentDomain.ErrConsentDenied, fmt.Sprintf("purpose %q", purpose))
}
