package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/piivault/internal/subject/domain"
)

// MockSubjectUseCase is a mock implementation of SubjectUseCase for testing.
type MockSubjectUseCase struct {
	mock.Mock
}

// Register mocks the Register method of SubjectUseCase.
func (m *MockSubjectUseCase) Register(
	ctx context.Context,
	input domain.RegisterSubjectInput,
	actor string,
) (*domain.Subject, error) {
	args := m.Called(ctx, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

// Get mocks the Get method of SubjectUseCase.
func (m *MockSubjectUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

// GetByEmail mocks the GetByEmail method of SubjectUseCase.
func (m *MockSubjectUseCase) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}
