package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
)

// MockConsentUseCase is a mock implementation of the consent use case.
type MockConsentUseCase struct {
	mock.Mock
}

// SetConsent mocks the SetConsent method.
func (m *MockConsentUseCase) SetConsent(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
	granted bool,
	actor string,
) (*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, subjectID, purpose, granted, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consentDomain.ConsentRecord), args.Error(1)
}

// IsGranted mocks the IsGranted method.
func (m *MockConsentUseCase) IsGranted(ctx context.Context, subjectID uuid.UUID, purpose string) (bool, error) {
	args := m.Called(ctx, subjectID, purpose)
	return args.Bool(0), args.Error(1)
}

// RevokeAll mocks the RevokeAll method.
func (m *MockConsentUseCase) RevokeAll(ctx context.Context, subjectID uuid.UUID, actor string) error {
	args := m.Called(ctx, subjectID, actor)
	return args.Error(0)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockConsentUseCase) ListBySubject(
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
func (m *MockConsentUseCase) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*consentDomain.ConsentRecord), args.Error(1)
}
