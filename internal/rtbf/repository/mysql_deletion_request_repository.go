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

// MySQLDeletionRequestRepository implements deletion request persistence for
// MySQL.
type MySQLDeletionRequestRepository struct {
	db *sql.DB
}

// Create inserts a new deletion request.
func (m *MySQLDeletionRequestRepository) Create(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := request.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal deletion request id")
	}
	subjectIDBytes, err := request.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `INSERT INTO deletion_requests
			  (id, subject_id, status, attempts, last_error, requested_at, processed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		subjectIDBytes,
		string(request.Status),
		request.Attempts,
		nullString(request.LastError),
		request.RequestedAt,
		request.ProcessedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return rtbfDomain.ErrActiveRequestExists
		}
		return apperrors.Wrap(err, "failed to create deletion request")
	}

	return nil
}

// GetByID retrieves a deletion request by ID.
func (m *MySQLDeletionRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal deletion request id")
	}

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE id = ?`

	return scanMySQLDeletionRequest(querier.QueryRowContext(ctx, query, idBytes))
}

// GetLatestBySubject retrieves the most recently submitted deletion request
// for a subject.
func (m *MySQLDeletionRequestRepository) GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE subject_id = ?
			  ORDER BY requested_at DESC, id DESC
			  LIMIT 1`

	return scanMySQLDeletionRequest(querier.QueryRowContext(ctx, query, subjectIDBytes))
}

// ListBySubject retrieves all deletion requests for a subject, oldest first.
func (m *MySQLDeletionRequestRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE subject_id = ?
			  ORDER BY requested_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, subjectIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion requests")
	}

	return collectMySQLDeletionRequests(rows)
}

// ListByStatus retrieves deletion requests in a given status, oldest first so
// the worker drains the backlog in submission order.
func (m *MySQLDeletionRequestRepository) ListByStatus(
	ctx context.Context,
	status rtbfDomain.Status,
	offset, limit int,
) ([]*rtbfDomain.DeletionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, subject_id, status, attempts, last_error, requested_at, processed_at
			  FROM deletion_requests
			  WHERE status = ?
			  ORDER BY requested_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion requests")
	}

	return collectMySQLDeletionRequests(rows)
}

// Update persists the mutable fields of a deletion request.
func (m *MySQLDeletionRequestRepository) Update(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := request.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal deletion request id")
	}

	query := `UPDATE deletion_requests
			  SET status = ?, attempts = ?, last_error = ?, processed_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(request.Status),
		request.Attempts,
		nullString(request.LastError),
		request.ProcessedAt,
		idBytes,
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

// NewMySQLDeletionRequestRepository creates a new MySQL deletion request
// repository.
func NewMySQLDeletionRequestRepository(db *sql.DB) *MySQLDeletionRequestRepository {
	return &MySQLDeletionRequestRepository{db: db}
}

func scanMySQLDeletionRequest(row *sql.Row) (*rtbfDomain.DeletionRequest, error) {
	var request rtbfDomain.DeletionRequest
	var idBytes, subjectIDBytes []byte
	var status string
	var lastError sql.NullString

	err := row.Scan(
		&idBytes,
		&subjectIDBytes,
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

	if err := request.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal deletion request id")
	}
	if err := request.SubjectID.UnmarshalBinary(subjectIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}
	request.Status = rtbfDomain.Status(status)
	request.LastError = lastError.String

	return &request, nil
}

func collectMySQLDeletionRequests(rows *sql.Rows) ([]*rtbfDomain.DeletionRequest, error) {
	defer func() {
		_ = rows.Close()
	}()

	requests := make([]*rtbfDomain.DeletionRequest, 0)
	for rows.Next() {
		var request rtbfDomain.DeletionRequest
		var idBytes, subjectIDBytes []byte
		var status string
		var lastError sql.NullString

		err := rows.Scan(
			&idBytes,
			&subjectIDBytes,
			&status,
			&request.Attempts,
			&lastError,
			&request.RequestedAt,
			&request.ProcessedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan deletion request")
		}

		if err := request.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal deletion request id")
		}
		if err := request.SubjectID.UnmarshalBinary(subjectIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint
// violation.
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
