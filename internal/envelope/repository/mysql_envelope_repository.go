package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	"github.com/allisson/piivault/internal/database"
	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// MySQLEnvelopeRepository implements envelope persistence for MySQL.
type MySQLEnvelopeRepository struct {
	db *sql.DB
}

// Create inserts a new envelope.
func (m *MySQLEnvelopeRepository) Create(ctx context.Context, envelope *envelopeDomain.Envelope) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := envelope.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal envelope id")
	}
	subjectIDBytes, err := envelope.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `INSERT INTO envelopes
			  (id, subject_id, label, ciphertext, nonce, wrapped_key, key_derivation_salt,
			   algorithm_id, master_key_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
		subjectIDBytes,
		envelope.Label,
		envelope.Ciphertext,
		envelope.Nonce,
		envelope.WrappedKey,
		envelope.KeyDerivationSalt,
		string(envelope.AlgorithmID),
		envelope.MasterKeyID,
		envelope.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create envelope")
	}

	return nil
}

// GetByID retrieves a full envelope including its key material.
func (m *MySQLEnvelopeRepository) GetByID(ctx context.Context, id uuid.UUID) (*envelopeDomain.Envelope, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal envelope id")
	}

	query := `SELECT id, subject_id, label, ciphertext, nonce, wrapped_key, key_derivation_salt,
			  algorithm_id, master_key_id, created_at, destroyed_at
			  FROM envelopes
			  WHERE id = ?`

	var envelope envelopeDomain.Envelope
	var envelopeIDBytes, subjectIDBytes []byte
	var algorithmID string

	err = querier.QueryRowContext(ctx, query, idBytes).Scan(
		&envelopeIDBytes,
		&subjectIDBytes,
		&envelope.Label,
		&envelope.Ciphertext,
		&envelope.Nonce,
		&envelope.WrappedKey,
		&envelope.KeyDerivationSalt,
		&algorithmID,
		&envelope.MasterKeyID,
		&envelope.CreatedAt,
		&envelope.DestroyedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, envelopeDomain.ErrEnvelopeNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get envelope")
	}

	if err := envelope.ID.UnmarshalBinary(envelopeIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal envelope id")
	}
	if err := envelope.SubjectID.UnmarshalBinary(subjectIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}
	envelope.AlgorithmID = cryptoDomain.Algorithm(algorithmID)

	return &envelope, nil
}

// ListBySubject retrieves envelope metadata for a subject, newest first. Key
// material and ciphertext are not loaded.
func (m *MySQLEnvelopeRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	offset, limit int,
) ([]*envelopeDomain.Envelope, error) {
	querier := database.GetTx(ctx, m.db)

	subjectIDBytes, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `SELECT id, subject_id, label, algorithm_id, master_key_id, created_at, destroyed_at
			  FROM envelopes
			  WHERE subject_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, subjectIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list envelopes")
	}
	defer func() {
		_ = rows.Close()
	}()

	envelopes := make([]*envelopeDomain.Envelope, 0)
	for rows.Next() {
		var envelope envelopeDomain.Envelope
		var envelopeIDBytes, rowSubjectIDBytes []byte
		var algorithmID string

		err := rows.Scan(
			&envelopeIDBytes,
			&rowSubjectIDBytes,
			&envelope.Label,
			&algorithmID,
			&envelope.MasterKeyID,
			&envelope.CreatedAt,
			&envelope.DestroyedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan envelope")
		}

		if err := envelope.ID.UnmarshalBinary(envelopeIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal envelope id")
		}
		if err := envelope.SubjectID.UnmarshalBinary(rowSubjectIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
		}
		envelope.AlgorithmID = cryptoDomain.Algorithm(algorithmID)

		envelopes = append(envelopes, &envelope)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate envelopes")
	}

	return envelopes, nil
}

// Scrub blanks the wrapped key and ciphertext and stamps destroyed_at.
// Returns false when the envelope was already destroyed or does not exist;
// the guard makes concurrent destroys converge on a single scrub.
func (m *MySQLEnvelopeRepository) Scrub(ctx context.Context, id uuid.UUID, destroyedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal envelope id")
	}

	query := `UPDATE envelopes
			  SET wrapped_key = ?, ciphertext = ?, destroyed_at = ?
			  WHERE id = ? AND destroyed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, []byte{}, []byte{}, destroyedAt, idBytes)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to scrub envelope")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check scrub result")
	}

	return rowsAffected == 1, nil
}

// NewMySQLEnvelopeRepository creates a new MySQL envelope repository.
func NewMySQLEnvelopeRepository(db *sql.DB) *MySQLEnvelopeRepository {
	return &MySQLEnvelopeRepository{db: db}
}
