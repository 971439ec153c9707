// Package repository implements consent record persistence. The table is
// append-only: no update or delete statements exist here.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// PostgreSQLConsentRepository implements consent record persistence for PostgreSQL.
type PostgreSQLConsentRepository struct {
	db *sql.DB
}

// Create appends a new consent record. Seq is assigned by the database and
// not read back.
func (p *PostgreSQLConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO consent_records (id, subject_id, purpose, granted, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.SubjectID,
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
func (p *PostgreSQLConsentRepository) GetLatest(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
) (*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, seq, subject_id, purpose, granted, created_at
			  FROM consent_records
			  WHERE subject_id = $1 AND purpose = $2
			  ORDER BY seq DESC
			  LIMIT 1`

	record, err := scanPostgreSQLConsentRecord(querier.QueryRowContext(ctx, query, subjectID, purpose))
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
func (p *PostgreSQLConsentRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, seq, subject_id, purpose, granted, created_at
			  FROM consent_records
			  WHERE subject_id = $1
			  ORDER BY seq ASC`

	rows, err := querier.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectConsentRecords(rows)
}

// ListCurrent retrieves the latest record per purpose for a subject, ordered
// by purpose.
func (p *PostgreSQLConsentRepository) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT DISTINCT ON (purpose) id, seq, subject_id, purpose, granted, created_at
			  FROM consent_records
			  WHERE subject_id = $1
			  ORDER BY purpose, seq DESC`

	rows, err := querier.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list current consent records")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectConsentRecords(rows)
}

// scanPostgreSQLConsentRecord scans a single row into a ConsentRecord.
func scanPostgreSQLConsentRecord(row *sql.Row) (*consentDomain.ConsentRecord, error) {
	var record consentDomain.ConsentRecord

	err := row.Scan(
		&record.ID,
		&record.Seq,
		&record.SubjectID,
		&record.Purpose,
		&record.Granted,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// collectConsentRecords drains rows into a slice. Returns an empty slice when
// nothing matches.
func collectConsentRecords(rows *sql.Rows) ([]*consentDomain.ConsentRecord, error) {
	records := make([]*consentDomain.ConsentRecord, 0)
	for rows.Next() {
		var record consentDomain.ConsentRecord
		err := rows.Scan(
			&record.ID,
			&record.Seq,
			&record.SubjectID,
			&record.Purpose,
			&record.Granted,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consent record")
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consent records")
	}

	return records, nil
}

// NewPostgreSQLConsentRepository creates a new PostgreSQL consent repository.
func NewPostgreSQLConsentRepository(db *sql.DB) *PostgreSQLConsentRepository {
	return &PostgreSQLConsentRepository{db: db}
}
