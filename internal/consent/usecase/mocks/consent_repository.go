// Package mocks provides mock implementations for testing consent components.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
)

// MockConsentRepository is a mock implementation of the consent repository.
type MockConsentRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockConsentRepository) Create(ctx context.Context, record *consentDomain.ConsentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetLatest mocks the GetLatest method.
func (m *MockConsentRepository) GetLatest(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
) (*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, subjectID, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consentDomain.ConsentRecord), args.Error(1)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockConsentRepository) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*consentDomain.ConsentRecord), args.Error(1)
}

// ListCurrent mocks the ListCurrent method.
func (m *MockConsentRepository) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*consentDomain.ConsentRecord), args.Error(1)
}
