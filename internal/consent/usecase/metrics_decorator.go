package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	"github.com/allisson/piivault/internal/metrics"
)

// consentUseCaseWithMetrics decorates ConsentUseCase with metrics instrumentation.
type consentUseCaseWithMetrics struct {
	next    ConsentUseCase
	metrics metrics.BusinessMetrics
}

// NewConsentUseCaseWithMetrics wraps a ConsentUseCase with metrics recording.
func NewConsentUseCaseWithMetrics(useCase ConsentUseCase, m metrics.BusinessMetrics) ConsentUseCase {
	return &consentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// SetConsent records metrics for consent decision writes.
func (c *consentUseCaseWithMetrics) SetConsent(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
	granted bool,
	actor string,
) (*consentDomain.ConsentRecord, error) {
	start := time.Now()
	record, err := c.next.SetConsent(ctx, subjectID, purpose, granted, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "consent", "consent_set", status)
	c.metrics.RecordDuration(ctx, "consent", "consent_set", time.Since(start), status)

	return record, err
}

// IsGranted records metrics for consent checks.
func (c *consentUseCaseWithMetrics) IsGranted(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose string,
) (bool, error) {
	start := time.Now()
	granted, err := c.next.IsGranted(ctx, subjectID, purpose)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "consent", "consent_check", status)
	c.metrics.RecordDuration(ctx, "consent", "consent_check", time.Since(start), status)

	return granted, err
}

// RevokeAll records metrics for bulk consent revocation.
func (c *consentUseCaseWithMetrics) RevokeAll(ctx context.Context, subjectID uuid.UUID, actor string) error {
	start := time.Now()
	err := c.next.RevokeAll(ctx, subjectID, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "consent", "consent_revoke_all", status)
	c.metrics.RecordDuration(ctx, "consent", "consent_revoke_all", time.Since(start), status)

	return err
}

// ListBySubject records metrics for consent history reads.
func (c *consentUseCaseWithMetrics) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	start := time.Now()
	records, err := c.next.ListBySubject(ctx, subjectID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "consent", "consent_list_history", status)
	c.metrics.RecordDuration(ctx, "consent", "consent_list_history", time.Since(start), status)

	return records, err
}

// ListCurrent records metrics for current consent state reads.
func (c *consentUseCaseWithMetrics) ListCurrent(
	ctx context.Context,
	subjectID uuid.UUID,
) ([]*consentDomain.ConsentRecord, error) {
	start := time.Now()
	records, err := c.next.ListCurrent(ctx, subjectID)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "consent", "consent_list_current", status)
	c.metrics.RecordDuration(ctx, "consent", "consent_list_current", time.Since(start), status)

	return records, err
}
