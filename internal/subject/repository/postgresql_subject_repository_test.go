package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piivault/internal/database"
	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/subject/domain"
	"github.com/allisson/piivault/internal/testutil"
)

func TestNewPostgreSQLSubjectRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLSubjectRepository{}, repo)
}

func TestPostgreSQLSubjectRepository_Create(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
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
}

func TestPostgreSQLSubjectRepository_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
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
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPostgreSQLSubjectRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)

	subject, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
	assert.Nil(t, subject)
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgreSQLSubjectRepository_GetByEmail(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "lookup@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, subject))

	read, err := repo.GetByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, subject.ID, read.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestPostgreSQLSubjectRepository_Lock(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
	txManager := database.NewTxManager(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "locked@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, subject))

	var locked *domain.Subject
	err := txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		locked, txErr = repo.Lock(txCtx, subject.ID)
		return txErr
	})
	require.NoError(t, err)
	assert.Equal(t, subject.ID, locked.ID)
	assert.Equal(t, subject.Email, locked.Email)

	err = txManager.WithTx(ctx, func(txCtx context.Context) error {
		_, txErr := repo.Lock(txCtx, uuid.Must(uuid.NewV7()))
		return txErr
	})
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestPostgreSQLSubjectRepository_Lock_SerializesWriters(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
	txManager := database.NewTxManager(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "contended@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, subject))

	holderLocked := make(chan struct{})
	releaseHolder := make(chan struct{})
	waiterDone := make(chan time.Time, 1)

	go func() {
		_ = txManager.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.Lock(txCtx, subject.ID); err != nil {
				return err
			}
			close(holderLocked)
			<-releaseHolder
			return nil
		})
	}()

	<-holderLocked
	go func() {
		_ = txManager.WithTx(ctx, func(txCtx context.Context) error {
			_, err := repo.Lock(txCtx, subject.ID)
			waiterDone <- time.Now()
			return err
		})
	}()

	// The waiter must block until the holder commits
	select {
	case <-waiterDone:
		t.Fatal("second lock acquired while first transaction still held the row")
	case <-time.After(200 * time.Millisecond):
	}

	released := time.Now()
	close(releaseHolder)

	select {
	case acquired := <-waiterDone:
		assert.True(t, acquired.After(released) || acquired.Equal(released),
			"waiter should acquire the lock only after the holder releases it")
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestPostgreSQLSubjectRepository_Anonymize(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)
	ctx := context.Background()

	subject := &domain.Subject{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     "erase-me@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, subject))

	tombstone := domain.TombstoneEmail(subject.ID)
	err := repo.Anonymize(ctx, subject.ID, tombstone)
	require.NoError(t, err)

	read, err := repo.GetByID(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, tombstone, read.Email)
	require.NotNil(t, read.ErasedAt)
	assert.WithinDuration(t, time.Now().UTC(), *read.ErasedAt, 2*time.Second)
	assert.True(t, read.Erased())

	// The original email must be gone
	_, err = repo.GetByEmail(ctx, "erase-me@example.com")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestPostgreSQLSubjectRepository_Anonymize_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSubjectRepository(db)

	id := uuid.Must(uuid.NewV7())
	err := repo.Anonymize(context.Background(), id, domain.TombstoneEmail(id))
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}
