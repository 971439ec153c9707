// Package mocks provides mock implementations for testing deletion request
// components.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// MockDeletionRequestRepository is a mock implementation of the deletion
// request repository. It covers every repository method so it satisfies the
// narrower interfaces each use case declares.
type MockDeletionRequestRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockDeletionRequestRepository) Create(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockDeletionRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rtbfDomain.DeletionRequest), args.Error(1)
}

// GetLatestBySubject mocks the GetLatestBySubject method.
func (m *MockDeletionRequestRepository) GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rtbfDomain.DeletionRequest), args.Error(1)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockDeletionRequestRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rtbfDomain.DeletionRequest), args.Error(1)
}

// ListByStatus mocks the ListByStatus method.
func (m *MockDeletionRequestRepository) ListByStatus(ctx context.Context, status rtbfDomain.Status, offset, limit int) ([]*rtbfDomain.DeletionRequest, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rtbfDomain.DeletionRequest), args.Error(1)
}

// Update mocks the Update method.
func (m *MockDeletionRequestRepository) Update(ctx context.Context, request *rtbfDomain.DeletionRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}
