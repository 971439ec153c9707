// Package repository implements persistence for the audit ledger. Both
// PostgreSQL and MySQL variants serialize appends through a single chain head
// row locked with SELECT ... FOR UPDATE, so concurrent writers cannot fork
// the hash chain.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// PostgreSQLAuditRepository implements audit entry persistence for PostgreSQL.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// Create inserts a new audit entry. Seq is assigned by the database and not
// read back; callers that need it load the entry again.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_entries
			  (id, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			   prev_hash, entry_hash, signature, signing_key_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.RequestID,
		entry.ActorID,
		string(entry.Action),
		entry.SubjectID,
		entry.EnvelopeID,
		string(entry.Outcome),
		entry.Detail,
		entry.PrevHash,
		entry.EntryHash,
		entry.Signature,
		entry.SigningKeyID,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}

	return nil
}

// LockChainHead locks the ledger head row and returns the hash of the latest
// entry. Must run inside a transaction; the lock is held until commit so
// concurrent appends serialize instead of forking the chain.
func (p *PostgreSQLAuditRepository) LockChainHead(ctx context.Context) ([]byte, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT entry_hash FROM audit_chain_head WHERE id = 1 FOR UPDATE`

	var head []byte
	if err := querier.QueryRowContext(ctx, query).Scan(&head); err != nil {
		if err == sql.ErrNoRows {
			return nil, auditDomain.ErrChainNotInitialized
		}
		return nil, apperrors.Wrap(err, "failed to lock audit chain head")
	}

	return head, nil
}

// UpdateChainHead stores the hash of the entry just appended.
func (p *PostgreSQLAuditRepository) UpdateChainHead(ctx context.Context, entryHash []byte) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE audit_chain_head SET entry_hash = $1 WHERE id = 1`

	if _, err := querier.ExecContext(ctx, query, entryHash); err != nil {
		return apperrors.Wrap(err, "failed to update audit chain head")
	}

	return nil
}

// List retrieves audit entries newest first with optional filters and
// offset/limit pagination. Returns an empty slice when nothing matches.
func (p *PostgreSQLAuditRepository) List(
	ctx context.Context,
	filter *auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any

	if filter != nil {
		if filter.SubjectID != nil {
			args = append(args, *filter.SubjectID)
			conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
		}
		if filter.Action != "" {
			args = append(args, string(filter.Action))
			conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
		}
		if filter.Outcome != "" {
			args = append(args, string(filter.Outcome))
			conditions = append(conditions, fmt.Sprintf("outcome = $%d", len(args)))
		}
		if filter.CreatedAtFrom != nil {
			args = append(args, *filter.CreatedAtFrom)
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
		}
		if filter.CreatedAtTo != nil {
			args = append(args, *filter.CreatedAtTo)
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
		}
	}

	query := `SELECT id, seq, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			  prev_hash, entry_hash, signature, signing_key_id, created_at
			  FROM audit_entries`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanPostgreSQLEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}

	return entries, nil
}

// ListRange retrieves entries in ledger order for chain verification.
// Entries with seq greater than afterSeq and within the inclusive time bounds
// are returned oldest first, at most limit at a time.
func (p *PostgreSQLAuditRepository) ListRange(
	ctx context.Context,
	from, to *time.Time,
	afterSeq int64,
	limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	args := []any{afterSeq}
	conditions := []string{"seq > $1"}

	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, seq, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			  prev_hash, entry_hash, signature, signing_key_id, created_at
			  FROM audit_entries
			  WHERE %s
			  ORDER BY seq ASC
			  LIMIT $%d`, strings.Join(conditions, " AND "), len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entry range")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanPostgreSQLEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entry range")
	}

	return entries, nil
}

// scanPostgreSQLEntry scans the current row into an Entry, mapping NULL
// subject and envelope references to nil.
func scanPostgreSQLEntry(rows *sql.Rows) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var action, outcome string
	var subjectID, envelopeID uuid.NullUUID

	err := rows.Scan(
		&entry.ID,
		&entry.Seq,
		&entry.RequestID,
		&entry.ActorID,
		&action,
		&subjectID,
		&envelopeID,
		&outcome,
		&entry.Detail,
		&entry.PrevHash,
		&entry.EntryHash,
		&entry.Signature,
		&entry.SigningKeyID,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit entry")
	}

	entry.Action = auditDomain.Action(action)
	entry.Outcome = auditDomain.Outcome(outcome)
	if subjectID.Valid {
		entry.SubjectID = &subjectID.UUID
	}
	if envelopeID.Valid {
		entry.EnvelopeID = &envelopeID.UUID
	}

	return &entry, nil
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}
