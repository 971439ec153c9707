package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// MySQLAuditRepository implements audit entry persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAuditRepository struct {
	db *sql.DB
}

// Create inserts a new audit entry.
func (m *MySQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO audit_entries
			  (id, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			   prev_hash, entry_hash, signature, signing_key_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit entry id")
	}

	subjectID, err := marshalOptionalUUID(entry.SubjectID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	envelopeID, err := marshalOptionalUUID(entry.EnvelopeID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal envelope id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		entry.RequestID,
		entry.ActorID,
		string(entry.Action),
		subjectID,
		envelopeID,
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
// entry. Must run inside a transaction.
func (m *MySQLAuditRepository) LockChainHead(ctx context.Context) ([]byte, error) {
	querier := database.GetTx(ctx, m.db)

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
func (m *MySQLAuditRepository) UpdateChainHead(ctx context.Context, entryHash []byte) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE audit_chain_head SET entry_hash = ? WHERE id = 1`

	if _, err := querier.ExecContext(ctx, query, entryHash); err != nil {
		return apperrors.Wrap(err, "failed to update audit chain head")
	}

	return nil
}

// List retrieves audit entries newest first with optional filters and
// offset/limit pagination. Returns an empty slice when nothing matches.
func (m *MySQLAuditRepository) List(
	ctx context.Context,
	filter *auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if filter != nil {
		if filter.SubjectID != nil {
			subjectID, err := filter.SubjectID.MarshalBinary()
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to marshal subject id")
			}
			conditions = append(conditions, "subject_id = ?")
			args = append(args, subjectID)
		}
		if filter.Action != "" {
			conditions = append(conditions, "action = ?")
			args = append(args, string(filter.Action))
		}
		if filter.Outcome != "" {
			conditions = append(conditions, "outcome = ?")
			args = append(args, string(filter.Outcome))
		}
		if filter.CreatedAtFrom != nil {
			conditions = append(conditions, "created_at >= ?")
			args = append(args, *filter.CreatedAtFrom)
		}
		if filter.CreatedAtTo != nil {
			conditions = append(conditions, "created_at <= ?")
			args = append(args, *filter.CreatedAtTo)
		}
	}

	query := `SELECT id, seq, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			  prev_hash, entry_hash, signature, signing_key_id, created_at
			  FROM audit_entries`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY seq DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanMySQLEntry(rows)
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
func (m *MySQLAuditRepository) ListRange(
	ctx context.Context,
	from, to *time.Time,
	afterSeq int64,
	limit int,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	conditions := []string{"seq > ?"}
	args := []any{afterSeq}

	if from != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *to)
	}

	query := `SELECT id, seq, request_id, actor_id, action, subject_id, envelope_id, outcome, detail,
			  prev_hash, entry_hash, signature, signing_key_id, created_at
			  FROM audit_entries
			  WHERE ` + strings.Join(conditions, " AND ") + `
			  ORDER BY seq ASC
			  LIMIT ?`
	args = append(args, limit)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entry range")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanMySQLEntry(rows)
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

// scanMySQLEntry scans the current row into an Entry, unmarshaling BINARY(16)
// UUID columns and mapping NULL references to nil.
func scanMySQLEntry(rows *sql.Rows) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var action, outcome string
	var id, subjectID, envelopeID []byte

	err := rows.Scan(
		&id,
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

	if err := entry.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit entry id")
	}

	entry.Action = auditDomain.Action(action)
	entry.Outcome = auditDomain.Outcome(outcome)

	if subjectID != nil {
		parsed, err := uuid.FromBytes(subjectID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
		}
		entry.SubjectID = &parsed
	}
	if envelopeID != nil {
		parsed, err := uuid.FromBytes(envelopeID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal envelope id")
		}
		entry.EnvelopeID = &parsed
	}

	return &entry, nil
}

// marshalOptionalUUID returns the binary form of id, or nil for a nil id so
// the column is stored as NULL.
func marshalOptionalUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}
