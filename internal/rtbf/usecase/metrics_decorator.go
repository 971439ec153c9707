package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/metrics"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// deletionRequestUseCaseWithMetrics decorates DeletionRequestUseCase with
// metrics instrumentation.
type deletionRequestUseCaseWithMetrics struct {
	next    DeletionRequestUseCase
	metrics metrics.BusinessMetrics
}

// NewDeletionRequestUseCaseWithMetrics wraps a DeletionRequestUseCase with
// metrics recording.
func NewDeletionRequestUseCaseWithMetrics(useCase DeletionRequestUseCase, m metrics.BusinessMetrics) DeletionRequestUseCase {
	return &deletionRequestUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Submit records metrics for deletion request submission.
func (d *deletionRequestUseCaseWithMetrics) Submit(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) (*rtbfDomain.DeletionRequest, error) {
	start := time.Now()
	request, err := d.next.Submit(ctx, subjectID, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "deletion", "deletion_submit", status)
	d.metrics.RecordDuration(ctx, "deletion", "deletion_submit", time.Since(start), status)

	return request, err
}

// Process records metrics for deletion request processing.
func (d *deletionRequestUseCaseWithMetrics) Process(
	ctx context.Context,
	requestID uuid.UUID,
	actor string,
) (*rtbfDomain.DeletionRequest, error) {
	start := time.Now()
	request, err := d.next.Process(ctx, requestID, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "deletion", "deletion_process", status)
	d.metrics.RecordDuration(ctx, "deletion", "deletion_process", time.Since(start), status)

	return request, err
}

// Get records metrics for deletion request retrieval.
func (d *deletionRequestUseCaseWithMetrics) Get(ctx context.Context, requestID uuid.UUID) (*rtbfDomain.DeletionRequest, error) {
	start := time.Now()
	request, err := d.next.Get(ctx, requestID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "deletion", "deletion_get", status)
	d.metrics.RecordDuration(ctx, "deletion", "deletion_get", time.Since(start), status)

	return request, err
}

// ListByStatus records metrics for deletion request listing.
func (d *deletionRequestUseCaseWithMetrics) ListByStatus(
	ctx context.Context,
	status rtbfDomain.Status,
	offset, limit int,
) ([]*rtbfDomain.DeletionRequest, error) {
	start := time.Now()
	requests, err := d.next.ListByStatus(ctx, status, offset, limit)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	d.metrics.RecordOperation(ctx, "deletion", "deletion_list", outcome)
	d.metrics.RecordDuration(ctx, "deletion", "deletion_list", time.Since(start), outcome)

	return requests, err
}
