package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
)

// MockEnvelopeUseCase is a mock implementation of the envelope use case.
type MockEnvelopeUseCase struct {
	mock.Mock
}

// Seal mocks the Seal method.
func (m *MockEnvelopeUseCase) Seal(ctx context.Context, subjectID uuid.UUID, label string, plaintext []byte, actor string) (*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, subjectID, label, plaintext, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.Envelope), args.Error(1)
}

// Open mocks the Open method.
func (m *MockEnvelopeUseCase) Open(ctx context.Context, envelopeID uuid.UUID, purpose string, actor string) ([]byte, error) {
	args := m.Called(ctx, envelopeID, purpose, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Destroy mocks the Destroy method.
func (m *MockEnvelopeUseCase) Destroy(ctx context.Context, envelopeID uuid.UUID, actor string) error {
	args := m.Called(ctx, envelopeID, actor)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockEnvelopeUseCase) Get(ctx context.Context, envelopeID uuid.UUID) (*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, envelopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.Envelope), args.Error(1)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockEnvelopeUseCase) ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, subjectID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*envelopeDomain.Envelope), args.Error(1)
}
