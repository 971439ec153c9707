package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// MySQLConsentRepository implements consent record persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLConsentRepository struct {
	db *sql.DB
}

// Create appends a new consent record. Seq is assigned by the database and
// not read back.
func (m *MySQLConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO consent_records (id, subject_id, purpose, granted, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal consent record id")
	}

	subjectID, err := record.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subjectID,
		record.Purpose,
		record.Granted,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create consent record")
	}

	return nil
}

// GetLatest retrieves the most recent consent record for a subject and
// purpose. The latest record defines the current consent state.
func (m *MySQLConsentRepository) GetLatest(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
) (*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, seq, subject_id, purpose, granted, created_at
			  FROM consent_records
			  WHERE subject_id = ? AND purpose = ?
			  ORDER BY seq DESC
			  LIMIT 1`

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	record, err := scanMySQLConsentRecordRow(querier.QueryRowContext(ctx, query, subjectIDBytes, purpose))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, consentDomain.ErrConsentRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest consent record")
	}

	return record, nil
}

// ListBySubject retrieves the full consent history for a subject, oldest
// first.
func (m *MySQLConsentRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, seq, subject_id, purpose, granted, created_at
			  FROM consent_records
			  WHERE subject_id = ?
			  ORDER BY seq ASC`

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	rows, err := querier.QueryContext(ctx, query, subjectIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectMySQLConsentRecords(rows)
}

// ListCurrent retrieves the latest record per purpose for a subject, ordered
// by purpose. MySQL has no DISTINCT ON, so the latest row is selected by
// joining against the max seq per purpose.
func (m *MySQLConsentRepository) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT c.id, c.seq, c.subject_id, c.purpose, c.granted, c.created_at
			  FROM consent_records c
			  INNER JOIN (
				  SELECT purpose, MAX(seq) AS max_seq
				  FROM consent_records
				  WHERE subject_id = ?
				  GROUP BY purpose
			  ) latest ON c.purpose = latest.purpose AND c.seq = latest.max_seq
			  ORDER BY c.purpose`

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	rows, err := querier.QueryContext(ctx, query, subjectIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list current consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectMySQLConsentRecords(rows)
}

// scanMySQLConsentRecordRow scans a single row, unmarshaling BINARY(16) UUID
// columns.
func scanMySQLConsentRecordRow(row *sql.Row) (*consentDomain.ConsentRecord, error) {
	var record consentDomain.ConsentRecord
	var id, subjectID []byte

	err := row.Scan(
		&id,
		&record.Seq,
		&subjectID,
		&record.Purpose,
		&record.Granted,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal consent record id")
	}
	if err := record.SubjectID.UnmarshalBinary(subjectID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}

	return &record, nil
}

// collectMySQLConsentRecords drains rows into a slice. Returns an empty slice
// when nothing matches.
func collectMySQLConsentRecords(rows *sql.Rows) ([]*consentDomain.ConsentRecord, error) {
	records := make([]*consentDomain.ConsentRecord, 0)
	for rows.Next() {
		var record consentDomain.ConsentRecord
		var id, subjectID []byte

		err := rows.Scan(
			&id,
			&record.Seq,
			&subjectID,
			&record.Purpose,
			&record.Granted,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent record")
		}

		if err := record.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal consent record id")
		}
		if err := record.SubjectID.UnmarshalBinary(subjectID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consent records")
	}

	return records, nil
}

// NewMySQLConsentRepository creates a new MySQL consent repository.
func NewMySQLConsentRepository(db *sql.DB) *MySQLConsentRepository {
	return &MySQLConsentRepository{db: db}
}
