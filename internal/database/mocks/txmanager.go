// Package mocks provides mock implementations for testing code that depends
// on the database package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTxManager is a mock implementation of database.TxManager. When the
// configured return value is nil, WithTx runs the callback inline and returns
// its error, matching the real manager's behavior closely enough for use case
// tests. A non-nil return value simulates a transaction setup failure and the
// callback does not run.
type MockTxManager struct {
	mock.Mock
}

// WithTx mocks the WithTx method of TxManager.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
