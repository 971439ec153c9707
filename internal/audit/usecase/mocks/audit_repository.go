// Package mocks provides mock implementations for testing audit use cases.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
)

// MockAuditRepository is a mock implementation of AuditRepository for testing.
type MockAuditRepository struct {
	mock.Mock
}

// Create mocks the Create method of AuditRepository.
func (m *MockAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// LockChainHead mocks the LockChainHead method of AuditRepository.
func (m *MockAuditRepository) LockChainHead(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// UpdateChainHead mocks the UpdateChainHead method of AuditRepository.
func (m *MockAuditRepository) UpdateChainHead(ctx context.Context, entryHash []byte) error {
	args := m.Called(ctx, entryHash)
	return args.Error(0)
}

// List mocks the List method of AuditRepository.
func (m *MockAuditRepository) List(
	ctx context.Context,
	filter *auditDomain.Filter,
	offset, limit int,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

// ListRange mocks the ListRange method of AuditRepository.
func (m *MockAuditRepository) ListRange(
	ctx context.Context,
	from, to *time.Time,
	afterSeq int64,
	limit int,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, from, to, afterSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}
