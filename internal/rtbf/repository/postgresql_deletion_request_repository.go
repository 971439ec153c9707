// Package repository implements deletion request persistence. The schema
// enforces at most one pending or processing request per subject; Create maps
// that violation to the domain conflict error.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// PostgreSQLDeletionRequestRepository implements deletion request persistence
// for PostgreSQL.
type PostgreSQLDeletionRequestRepository struct {
	db *sql.DB
}

// Create inserts a new deletion request.
func (p *PostgreSQLDeletionRequestRepository) Create(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO deletion_requests
			  (id, subject_id, status, attempts, last_error, requested_at, processed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.SubjectID,
		string(request.Status),
		request.Attempts,
		nullString(request.LastError),
		request.RequestedAt,
		request.ProcessedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return rtbfDomain.ErrActiveRequestExists
		}
		return apperrors.Wrap(err, "failed to create deletion request")
	}

	return nil
}

// GetByID retrieves a deletion request by ID.
func (p *PostgreSQLDeletionRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE id = $1`

	return scanPostgreSQLDeletionRequest(querier.QueryRowContext(ctx, query, id))
}

// GetLatestBySubject retrieves the most recently submitted deletion request
// for a subject.
func (p *PostgreSQLDeletionRequestRepository) GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE subject_id = $1
			  ORDER BY requested_at DESC, id DESC
			  LIMIT 1`

	return scanPostgreSQLDeletionRequest(querier.QueryRowContext(ctx, query, subjectID))
}

// ListBySubject retrieves all deletion requests for a subject, oldest first.
func (p *PostgreSQLDeletionRequestRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE subject_id = $1
			  ORDER BY requested_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion requests")
	}

	return collectPostgreSQLDeletionRequests(rows)
}

// ListByStatus retrieves deletion requests in a given status, oldest first so
// the worker drains the backlog in submission order.
func (p *PostgreSQLDeletionRequestRepository) ListByStatus(
	ctx context.Context,
	status rtbfDomain.Status,
	offset, limit int,
) ([]*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE status = $1
			  ORDER BY requested_at ASC, id ASC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion requests")
	}

	return collectPostgreSQLDeletionRequests(rows)
}

// Update persists the mutable fields of a deletion request.
func (p *PostgreSQLDeletionRequestRepository) Update(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE deletion_requests
			  SET status = $1, attempts = $2, last_error = $3, processed_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(request.Status),
		request.Attempts,
		nullString(request.LastError),
		request.ProcessedAt,
		request.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update deletion request")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rowsAffected == 0 {
		return rtbfDomain.ErrDeletionRequestNotFound
	}

	return nil
}

// NewPostgreSQLDeletionRequestRepository creates a new PostgreSQL deletion
// request repository.
func NewPostgreSQLDeletionRequestRepository(db *sql.DB) *PostgreSQLDeletionRequestRepository {
	return &PostgreSQLDeletionRequestRepository{db: db}
}

func scanPostgreSQLDeletionRequest(row *sql.Row) (*rtbfDomain.DeletionRequest, error) {
	var request rtbfDomain.DeletionRequest
	var status string
	var lastError sql.NullString

	err := row.Scan(
		&request.ID,
		&request.SubjectID,
		&status,
		&request.Attempts,
		&lastError,
		&request.RequestedAt,
		&request.ProcessedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, rtbfDomain.ErrDeletionRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get deletion request")
	}

	request.Status = rtbfDomain.Status(status)
	request.LastError = lastError.String

	return &request, nil
}

func collectPostgreSQLDeletionRequests(rows *sql.Rows) ([]*rtbfDomain.DeletionRequest, error) {
	defer func() {
		_ = rows.Close()
	}()

	requests := make([]*rtbfDomain.DeletionRequest, 0)
	for rows.Next() {
		var request rtbfDomain.DeletionRequest
		var status string
		var lastError sql.NullString

		err := rows.Scan(
			&request.ID,
			&request.SubjectID,
			&status,
			&request.Attempts,
			&lastError,
			&request.RequestedAt,
			&request.ProcessedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan deletion request")
		}

		request.Status = rtbfDomain.Status(status)
		request.LastError = lastError.String
		requests = append(requests, &request)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate deletion requests")
	}

	return requests, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
