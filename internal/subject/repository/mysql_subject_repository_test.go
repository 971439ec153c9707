package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piivault/internal/subject/domain"
	"github.com/allisson/piivault/internal/testutil"
)

func TestNewMySQLSubjectRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLSubjectRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &MySQLSubjectRepository{}, repo)
}

func TestMySQLSubjectRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubjectRepository(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}

	err := repo.Create(ctx, subject)
	require.NoError(t, err)

	read, err := repo.GetByID(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, subject.ID, read.ID)
	assert.Equal(t, subject.Email, read.Email)
	assert.WithinDuration(t, subject.CreatedAt, read.CreatedAt, time.Second)
	assert.Nil(t, read.ErasedAt)

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, subject.ID, byEmail.ID)
}

func TestMySQLSubjectRepository_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubjectRepository(db)
	ctx := context.Background()

	first := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "duplicate@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "duplicate@example.com",
		CreatedAt: time.Now().UTC(),
	}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrSubjectAlreadyExists)
}

func TestMySQLSubjectRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubjectRepository(db)

	subject, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
	assert.Nil(t, subject)
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestMySQLSubjectRepository_Anonymize(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubjectRepository(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "erase-me@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, subject))

	tombstone := domain.TombstoneEmail(subject.ID)
	require.NoError(t, repo.Anonymize(ctx, subject.ID, tombstone))

	read, err := repo.GetByID(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, tombstone, read.Email)
	assert.True(t, read.Erased())

	_, err = repo.GetByEmail(ctx, "erase-me@example.com")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}
