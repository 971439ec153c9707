// Package repository provides data persistence implementations for subject entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/subject/domain"
)

// MySQLSubjectRepository handles subject persistence for MySQL.
type MySQLSubjectRepository struct {
	db *sql.DB
}

// NewMySQLSubjectRepository creates a new MySQLSubjectRepository.
func NewMySQLSubjectRepository(db *sql.DB) *MySQLSubjectRepository {
	return &MySQLSubjectRepository{
		db: db,
	}
}

// Create inserts a new subject.
func (r *MySQLSubjectRepository) Create(ctx context.Context, subject *domain.Subject) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO subjects (id, email, created_at) VALUES (?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := subject.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, subject.Email, subject.CreatedAt)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isMySQLUniqueViolation(err) {
			return domain.ErrSubjectAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create subject")
	}
	return nil
}

// GetByID retrieves a subject by ID.
func (r *MySQLSubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLSubject(querier.QueryRowContext(ctx, query, idBytes))
}

// GetByEmail retrieves a subject by its external email reference.
func (r *MySQLSubjectRepository) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE email = ?`

	return scanMySQLSubject(querier.QueryRowContext(ctx, query, email))
}

// Lock loads a subject with SELECT ... FOR UPDATE, serializing every mutating
// flow for that subject until the surrounding transaction ends. Must run
// inside a transaction.
func (r *MySQLSubjectRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE id = ? FOR UPDATE`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLSubject(querier.QueryRowContext(ctx, query, idBytes))
}

// Anonymize replaces the subject's email with the given tombstone and stamps
// the erasure time. The original email is gone after this.
func (r *MySQLSubjectRepository) Anonymize(ctx context.Context, id uuid.UUID, tombstoneEmail string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE subjects SET email = ?, erased_at = NOW(6) WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, tombstoneEmail, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to anonymize subject")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check anonymized rows")
	}
	if rows == 0 {
		return domain.ErrSubjectNotFound
	}

	return nil
}

// scanMySQLSubject scans a single subject row, converting the binary UUID.
func scanMySQLSubject(row *sql.Row) (*domain.Subject, error) {
	var subject domain.Subject
	var idBytes []byte

	err := row.Scan(&idBytes, &subject.Email, &subject.CreatedAt, &subject.ErasedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan subject")
	}

	if err := subject.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &subject, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
