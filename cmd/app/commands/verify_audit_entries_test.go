package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditMocks "github.com/allisson/piivault/internal/audit/usecase/mocks"
)

func TestRunVerifyAuditEntries(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	startDate := "2025-01-01"
	endDate := "2025-01-02"

	report := &auditDomain.VerifyReport{
		Checked: 10,
		Valid:   true,
	}

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &auditMocks.MockAuditUseCase{}
		mockUseCase.On("VerifyChain", ctx, mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditEntries(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Audit Ledger Integrity Verification")
		require.Contains(t, out.String(), "Status: PASSED")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &auditMocks.MockAuditUseCase{}
		mockUseCase.On("VerifyChain", ctx, mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditEntries(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(out.Bytes(), &result)
		require.NoError(t, err)
		require.Equal(t, float64(10), result["checked"])
		require.Equal(t, true, result["valid"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("unbounded-range", func(t *testing.T) {
		mockUseCase := &auditMocks.MockAuditUseCase{}
		mockUseCase.On("VerifyChain", ctx, (*time.Time)(nil), (*time.Time)(nil)).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditEntries(ctx, mockUseCase, logger, &out, "", "", "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "ledger start")
		require.Contains(t, out.String(), "ledger end")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-dates", func(t *testing.T) {
		err := RunVerifyAuditEntries(ctx, nil, logger, nil, "invalid", endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")
	})

	t.Run("inverted-range", func(t *testing.T) {
		err := RunVerifyAuditEntries(ctx, nil, logger, nil, endDate, startDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("integrity-failure", func(t *testing.T) {
		mockUseCase := &auditMocks.MockAuditUseCase{}
		invalidID := uuid.New()
		failureReport := &auditDomain.VerifyReport{
			Checked:        10,
			Valid:          false,
			FirstInvalidID: &invalidID,
			Reason:         "hash chain broken",
		}
		mockUseCase.On("VerifyChain", ctx, mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).
			Return(failureReport, nil)

		var out bytes.Buffer
		err := RunVerifyAuditEntries(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), "WARNING: ledger failed integrity check!")
		require.Contains(t, out.String(), invalidID.String())
	})
}
