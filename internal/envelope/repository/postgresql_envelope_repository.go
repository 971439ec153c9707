// Package repository implements envelope persistence. Envelope rows are
// immutable except for the destruction scrub, which blanks the key material
// and sets destroyed_at exactly once.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/database"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// PostgreSQLEnvelopeRepository implements envelope persistence for PostgreSQL.
type PostgreSQLEnvelopeRepository struct {
	db *sql.DB
}

// Create inserts a new envelope.
func (p *PostgreSQLEnvelopeRepository) Create(ctx context.Context, envelope *envelopeDomain.Envelope) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO envelopes
			  (id, subject_id, label, ciphertext, nonce, wrapped_key, key_derivation_salt,
			   algorithm_id, master_key_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		envelope.ID,
		envelope.SubjectID,
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
func (p *PostgreSQLEnvelopeRepository) GetByID(ctx context.Context, id uuid.UUID) (*envelopeDomain.Envelope, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, label, ciphertext, nonce, wrapped_key, key_derivation_salt,
			  algorithm_id, master_key_id, created_at, destroyed_at
			  FROM envelopes
			  WHERE id = $1`

	var envelope envelopeDomain.Envelope
	var algorithmID string

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&envelope.ID,
		&envelope.SubjectID,
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

	envelope.AlgorithmID = cryptoDomain.Algorithm(algorithmID)

	return &envelope, nil
}

// ListBySubject retrieves envelope metadata for a subject, newest first. Key
// material and ciphertext are not loaded.
func (p *PostgreSQLEnvelopeRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	offset, limit int,
) ([]*envelopeDomain.Envelope, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, subject_id, label, algorithm_id, master_key_id, created_at, destroyed_at
			  FROM envelopes
			  WHERE subject_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, subjectID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list envelopes")
	}
	defer func() {
		_ = rows.Close()
	}()

	envelopes := make([]*envelopeDomain.Envelope, 0)
	for rows.Next() {
		var envelope envelopeDomain.Envelope
		var algorithmID string

		err := rows.Scan(
			&envelope.ID,
			&envelope.SubjectID,
			&envelope.Label,
			&algorithmID,
			&envelope.MasterKeyID,
			&envelope.CreatedAt,
			&envelope.DestroyedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan envelope")
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
func (p *PostgreSQLEnvelopeRepository) Scrub(ctx context.Context, id uuid.UUID, destroyedAt time.Time) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE envelopes
			  SET wrapped_key = $1, ciphertext = $2, destroyed_at = $3
			  WHERE id = $4 AND destroyed_at IS NULL`

	result, err := querier.ExecContext(ctx, query, []byte{}, []byte{}, destroyedAt, id)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to scrub envelope")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check scrub result")
	}

	return rowsAffected == 1, nil
}

// NewPostgreSQLEnvelopeRepository creates a new PostgreSQL envelope repository.
func NewPostgreSQLEnvelopeRepository(db *sql.DB) *PostgreSQLEnvelopeRepository {
	return &PostgreSQLEnvelopeRepository{db: db}
}
