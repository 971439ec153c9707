// Package usecase implements the audit ledger: hash-chained, HMAC-signed,
// append-only records of every security-relevant operation. Recording is
// transactional with the operation it describes, so a crash can lose both or
// neither, never the operation alone.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
)

// AuditRepository defines the interface for audit entry persistence.
type AuditRepository interface {
	Create(ctx context.Context, entry *auditDomain.Entry) error
	// LockChainHead returns the hash of the newest entry and holds a row lock
	// on it until the surrounding transaction ends.
	LockChainHead(ctx context.Context) ([]byte, error)
	UpdateChainHead(ctx context.Context, entryHash []byte) error
	List(ctx context.Context, filter *auditDomain.Filter, offset, limit int) ([]*auditDomain.Entry, error)
	ListRange(ctx context.Context, from, to *time.Time, afterSeq int64, limit int) ([]*auditDomain.Entry, error)
}

// AuditUseCase defines the interface for the audit ledger.
type AuditUseCase interface {
	// Record appends an entry to the ledger, filling in its ID, timestamp,
	// chain link, hash and signature. It joins the caller's transaction when
	// the context carries one; a recording failure must fail the operation
	// being recorded.
	Record(ctx context.Context, entry *auditDomain.Entry) error

	// List retrieves entries newest first with optional filters.
	List(ctx context.Context, filter *auditDomain.Filter, offset, limit int) ([]*auditDomain.Entry, error)

	// VerifyChain walks the ledger oldest first and checks every entry's
	// hash, signature and link to its predecessor. Nil bounds mean the whole
	// ledger. The returned report describes the first failure, if any.
	VerifyChain(ctx context.Context, from, to *time.Time) (*auditDomain.VerifyReport, error)
}
