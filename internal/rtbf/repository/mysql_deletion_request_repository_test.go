package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/piivault/internal/errors"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	"github.com/allisson/piivault/internal/testutil"
)

func TestNewMySQLDeletionRequestRepository(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	assert.NotNil(t, repo)
}

func TestMySQLDeletionRequestRepository_CreateAndGetByID(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	ctx := context.Background()
	subjectID := testutil.CreateTestSubject(t, db, "mysql", "alice@example.com")

	request := newDeletionRequest(subjectID)
	require.NoError(t, repo.Create(ctx, request))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)
	assert.Equal(t, subjectID, got.SubjectID)
	assert.Equal(t, rtbfDomain.StatusPending, got.Status)
	assert.Zero(t, got.Attempts)
	assert.Empty(t, got.LastError)
	assert.WithinDuration(t, request.RequestedAt, got.RequestedAt, time.Second)
	assert.Nil(t, got.ProcessedAt)
}

func TestMySQLDeletionRequestRepository_Create_SecondActiveRejected(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	ctx := context.Background()
	subjectID := testutil.CreateTestSubject(t, db, "mysql", "alice@example.com")

	require.NoError(t, repo.Create(ctx, newDeletionRequest(subjectID)))

	err := repo.Create(ctx, newDeletionRequest(subjectID))
	assert.ErrorIs(t, err, rtbfDomain.ErrActiveRequestExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMySQLDeletionRequestRepository_GetLatestBySubject(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	ctx := context.Background()
	subjectID := testutil.CreateTestSubject(t, db, "mysql", "alice@example.com")

	first := newDeletionRequest(subjectID)
	first.Status = rtbfDomain.StatusCompleted
	require.NoError(t, repo.Create(ctx, first))

	second := newDeletionRequest(subjectID)
	second.RequestedAt = first.RequestedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetLatestBySubject(ctx, subjectID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestMySQLDeletionRequestRepository_ListByStatus(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	pendingIDs := make([]uuid.UUID, 0, 2)
	for i := 0; i < 2; i++ {
		subjectID := testutil.CreateTestSubject(t, db, "mysql", uuid.Must(uuid.NewV7()).String()+"@example.com")
		request := newDeletionRequest(subjectID)
		request.RequestedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, request))
		pendingIDs = append(pendingIDs, request.ID)
	}

	requests, err := repo.ListByStatus(ctx, rtbfDomain.StatusPending, 0, 10)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, pendingIDs[0], requests[0].ID)
	assert.Equal(t, pendingIDs[1], requests[1].ID)
}

func TestMySQLDeletionRequestRepository_Update(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLDeletionRequestRepository(db)
	ctx := context.Background()
	subjectID := testutil.CreateTestSubject(t, db, "mysql", "alice@example.com")

	request := newDeletionRequest(subjectID)
	require.NoError(t, repo.Create(ctx, request))

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	request.Status = rtbfDomain.StatusCompleted
	request.Attempts = 1
	request.ProcessedAt = &processedAt
	require.NoError(t, repo.Update(ctx, request))

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, rtbfDomain.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.ProcessedAt)
	assert.WithinDuration(t, processedAt, *got.ProcessedAt, time.Second)
}
