package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
)

// RunVerifyAuditEntries verifies the hash chain and HMAC signatures of the
// audit ledger within an optional time range. Empty startDate or endDate means
// unbounded on that side. Returns an error when any entry fails verification,
// so a non-zero exit code signals a tampered or truncated ledger.
func RunVerifyAuditEntries(
	ctx context.Context,
	auditUC auditUseCase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	// Parse optional date bounds
	var from, to *time.Time

	if startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		from = &start
	}

	if endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		to = &end
	}

	if from != nil && to != nil && !to.After(*from) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit entries")

	report, err := auditUC.VerifyChain(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to verify audit entries: %w", err)
	}

	// Output result based on format
	if format == "json" {
		if err := outputVerifyJSON(writer, report); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, report, from, to)
	}

	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Bool("valid", report.Valid),
	)

	// Exit with error code if integrity check failed
	if !report.Valid {
		return fmt.Errorf("integrity check failed: %s", report.Reason)
	}

	return nil
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" to time.Time.
func parseDate(dateStr string) (time.Time, error) {
	// Try full datetime format first
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	// Try date-only format (defaults to start of day)
	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// formatBound renders an optional time bound for the text report.
func formatBound(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format("2006-01-02 15:04:05")
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(writer io.Writer, report *auditDomain.VerifyReport, from, to *time.Time) {
	_, _ = fmt.Fprintf(writer, "Audit Ledger Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "===================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		formatBound(from, "ledger start"),
		formatBound(to, "ledger end"),
	)

	_, _ = fmt.Fprintf(writer, "Entries Checked: %d\n\n", report.Checked)

	switch {
	case !report.Valid:
		_, _ = fmt.Fprintf(writer, "WARNING: ledger failed integrity check!\n\n")
		if report.FirstInvalidID != nil {
			_, _ = fmt.Fprintf(writer, "First Invalid Entry: %s\n", report.FirstInvalidID)
		}
		_, _ = fmt.Fprintf(writer, "Reason: %s\n\n", report.Reason)
		_, _ = fmt.Fprintf(writer, "Status: FAILED\n")
	case report.Checked == 0:
		_, _ = fmt.Fprintf(writer, "Status: No entries found in specified time range\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

// outputVerifyJSON outputs the verification result in JSON format for machine consumption.
func outputVerifyJSON(writer io.Writer, report *auditDomain.VerifyReport) error {
	result := map[string]interface{}{
		"checked": report.Checked,
		"valid":   report.Valid,
	}
	if report.FirstInvalidID != nil {
		result["first_invalid_id"] = report.FirstInvalidID.String()
	}
	if report.Reason != "" {
		result["reason"] = report.Reason
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
