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

// PostgreSQLSubjectRepository handles subject persistence for PostgreSQL.
type PostgreSQLSubjectRepository struct {
	db *sql.DB
}

// NewPostgreSQLSubjectRepository creates a new PostgreSQLSubjectRepository.
func NewPostgreSQLSubjectRepository(db *sql.DB) *PostgreSQLSubjectRepository {
	return &PostgreSQLSubjectRepository{
		db: db,
	}
}

// Create inserts a new subject.
func (r *PostgreSQLSubjectRepository) Create(ctx context.Context, subject *domain.Subject) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO subjects (id, email, created_at) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, subject.ID, subject.Email, subject.CreatedAt)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrSubjectAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create subject")
	}
	return nil
}

// GetByID retrieves a subject by ID.
func (r *PostgreSQLSubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE id = $1`

	return scanPostgreSQLSubject(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a subject by its external email reference.
func (r *PostgreSQLSubjectRepository) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE email = $1`

	return scanPostgreSQLSubject(querier.QueryRowContext(ctx, query, email))
}

// Lock loads a subject with SELECT ... FOR UPDATE, serializing every mutating
// flow for that subject until the surrounding transaction ends. Must run
// inside a transaction.
func (r *PostgreSQLSubjectRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, created_at, erased_at FROM subjects WHERE id = $1 FOR UPDATE`

	return scanPostgreSQLSubject(querier.QueryRowContext(ctx, query, id))
}

// Anonymize replaces the subject's email with the given tombstone and stamps
// the erasure time. The original email is gone after this.
func (r *PostgreSQLSubjectRepository) Anonymize(ctx context.Context, id uuid.UUID, tombstoneEmail string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE subjects SET email = $1, erased_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, tombstoneEmail, id)
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

// scanPostgreSQLSubject scans a single subject row.
func scanPostgreSQLSubject(row *sql.Row) (*domain.Subject, error) {
	var subject domain.Subject

	err := row.Scan(&subject.ID, &subject.Email, &subject.CreatedAt, &subject.ErasedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan subject")
	}

	return &subject, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
