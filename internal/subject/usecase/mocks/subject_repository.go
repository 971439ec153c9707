// Package mocks provides mock implementations for testing subject components.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/piivault/internal/subject/domain"
)

// MockSubjectRepository is a mock implementation of the subject repository.
// It covers every repository method so it satisfies the narrower interfaces
// each use case declares.
type MockSubjectRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockSubjectRepository) Create(ctx context.Context, subject *domain.Subject) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockSubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

// GetByEmail mocks the GetByEmail method.
func (m *MockSubjectRepository) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

// Lock mocks the Lock method.
func (m *MockSubjectRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

// Anonymize mocks the Anonymize method.
func (m *MockSubjectRepository) Anonymize(ctx context.Context, id uuid.UUID, tombstoneEmail string) error {
	args := m.Called(ctx, id, tombstoneEmail)
	return args.Error(0)
}
