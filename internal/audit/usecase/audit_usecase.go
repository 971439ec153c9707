package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditService "github.com/allisson/piivault/internal/audit/service"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
)

// verifyChainBatchSize is how many entries VerifyChain loads per round trip.
const verifyChainBatchSize = 500

// auditUseCase implements the AuditUseCase interface.
type auditUseCase struct {
	txManager      database.TxManager
	auditRepo      AuditRepository
	signer         auditService.Signer
	masterKeyChain *cryptoDomain.MasterKeyChain
}

// Record appends an entry to the ledger. The chain head row is locked for the
// duration of the transaction, which serializes appends and keeps the hash
// chain linear under concurrency.
func (a *auditUseCase) Record(ctx context.Context, entry *auditDomain.Entry) error {
	if entry.ActorID == "" || entry.Action == "" || entry.Outcome == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "audit entry requires actor, action and outcome")
	}

	activeKey, found := a.masterKeyChain.Active()
	if !found {
		return cryptoDomain.ErrMasterKeyNotFound
	}

	return a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		head, err := a.auditRepo.LockChainHead(txCtx)
		if err != nil {
			return err
		}

		if entry.ID == uuid.Nil {
			entry.ID = uuid.Must(uuid.NewV7())
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		if entry.RequestID == "" {
			entry.RequestID = httputil.GetRequestID(ctx)
		}
		entry.PrevHash = head
		entry.SigningKeyID = activeKey.ID
		entry.EntryHash = a.signer.EntryHash(entry)

		signature, err := a.signer.Sign(activeKey.Key, entry)
		if err != nil {
			return err
		}
		entry.Signature = signature

		if err := a.auditRepo.Create(txCtx, entry); err != nil {
			return err
		}

		return a.auditRepo.UpdateChainHead(txCtx, entry.EntryHash)
	})
}

// List retrieves entries newest first with optional filters.
func (a *auditUseCase) List(
	ctx context.Context,
	filter *auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	return a.auditRepo.List(ctx, filter, offset, limit)
}

// VerifyChain walks the ledger oldest first in batches, recomputing each
// entry's hash and signature and checking the link to its predecessor. It
// stops at the first failure.
func (a *auditUseCase) VerifyChain(
	ctx context.Context,
	from, to *time.Time,
) (*auditDomain.VerifyReport, error) {
	report := &auditDomain.VerifyReport{Valid: true}

	var prev *auditDomain.Entry
	var afterSeq int64

	for {
		entries, err := a.auditRepo.ListRange(ctx, from, to, afterSeq, verifyChainBatchSize)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			report.Checked++

			if reason := a.verifyEntry(entry, prev, from); reason != "" {
				report.Valid = false
				report.FirstInvalidID = &entry.ID
				report.Reason = reason
				return report, nil
			}

			prev = entry
		}

		afterSeq = entries[len(entries)-1].Seq
		if len(entries) < verifyChainBatchSize {
			break
		}
	}

	return report, nil
}

// verifyEntry checks one entry and returns an empty string when it is intact.
// The predecessor link of the first examined entry is only checked against
// the genesis hash when the walk starts at the beginning of the ledger.
func (a *auditUseCase) verifyEntry(entry, prev *auditDomain.Entry, from *time.Time) string {
	if !bytes.Equal(a.signer.EntryHash(entry), entry.EntryHash) {
		return "entry hash does not match entry content"
	}

	signingKey, found := a.masterKeyChain.Get(entry.SigningKeyID)
	if !found {
		return fmt.Sprintf("signing key %q not present in keychain", entry.SigningKeyID)
	}

	if err := a.signer.Verify(signingKey.Key, entry); err != nil {
		return "entry signature is invalid"
	}

	switch {
	case prev != nil:
		if !bytes.Equal(entry.PrevHash, prev.EntryHash) {
			return "chain link does not match previous entry"
		}
	case from == nil:
		if !bytes.Equal(entry.PrevHash, auditDomain.GenesisHash()) {
			return "first entry does not link to the genesis hash"
		}
	}

	return ""
}

// NewAuditUseCase creates a new audit ledger use case instance.
func NewAuditUseCase(
	txManager database.TxManager,
	auditRepo AuditRepository,
	signer auditService.Signer,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) AuditUseCase {
	return &auditUseCase{
		txManager:      txManager,
		auditRepo:      auditRepo,
		signer:         signer,
		masterKeyChain: masterKeyChain,
	}
}
