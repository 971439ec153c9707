package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// MockDeletionRequestUseCase is a mock implementation of the deletion request
// use case.
type MockDeletionRequestUseCase struct {
	mock.Mock
}

// Submit mocks the Submit method.
func (m *MockDeletionRequestUseCase) Submit(ctx context.Context, subjectID uuid.UUID, actor string) (*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, subjectID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rtbfDomain.DeletionRequest), args.Error(1)
}

// Process mocks the Process method.
func (m *MockDeletionRequestUseCase) Process(ctx context.Context, requestID uuid.UUID, actor string) (*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, requestID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rtbfDomain.DeletionRequest), args.Error(1)
}

// Get mocks the Get method.
func (m *MockDeletionRequestUseCase) Get(ctx context.Context, requestID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rtbfDomain.DeletionRequest), args.Error(1)
}

// ListByStatus mocks the ListByStatus method.
func (m *MockDeletionRequestUseCase) ListByStatus(ctx context.Context, status rtbfDomain.Status, offset, limit int) ([]*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rtbfDomain.DeletionRequest), args.Error(1)
}
