// Package mocks provides mock implementations for testing envelope components.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
)

// MockEnvelopeRepository is a mock implementation of the envelope repository.
type MockEnvelopeRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockEnvelopeRepository) Create(ctx context.Context, envelope *envelopeDomain.Envelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockEnvelopeRepository) GetByID(ctx context.Context, id uuid.UUID) (*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.Envelope), args.Error(1)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockEnvelopeRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID, offset, limit int) ([]*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, subjectID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*envelopeDomain.Envelope), args.Error(1)
}

// Scrub mocks the Scrub method.
func (m *MockEnvelopeRepository) Scrub(ctx context.Context, id uuid.UUID, destroyedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, destroyedAt)
	return args.Bool(0), args.Error(1)
}
