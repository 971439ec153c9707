// Package mocks provides mock implementations for testing export components.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	exportDomain "github.com/allisson/piivault/internal/export/domain"
)

// MockExportUseCase is a mock implementation of the export use case.
type MockExportUseCase struct {
	mock.Mock
}

// Export mocks the Export method.
func (m *MockExportUseCase) Export(ctx context.Context, subjectID uuid.UUID, actor string) (*exportDomain.Bundle, error) {
	args := m.Called(ctx, subjectID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exportDomain.Bundle), args.Error(1)
}

// Encode mocks the Encode method.
func (m *MockExportUseCase) Encode(bundle *exportDomain.Bundle) ([]byte, bool, error) {
	args := m.Called(bundle)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}
