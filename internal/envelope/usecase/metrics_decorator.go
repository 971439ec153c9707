package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	"github.com/allisson/piivault/internal/metrics"
)

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Seal records metrics for envelope creation.
func (e *envelopeUseCaseWithMetrics) Seal(
	ctx context.Context,
	subjectID uuid.UUID,
	label string,
	plaintext []byte,
	actor string,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	envelope, err := e.next.Seal(ctx, subjectID, label, plaintext, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "envelope_seal", status)
	e.metrics.RecordDuration(ctx, "envelope", "envelope_seal", time.Since(start), status)

	return envelope, err
}

// Open records metrics for envelope decryption. Refusals count as errors.
func (e *envelopeUseCaseWithMetrics) Open(
	ctx context.Context,
	envelopeID uuid.UUID,
	purpose string,
	actor string,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.Open(ctx, envelopeID, purpose, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "envelope_open", status)
	e.metrics.RecordDuration(ctx, "envelope", "envelope_open", time.Since(start), status)

	return plaintext, err
}

// Destroy records metrics for envelope destruction.
func (e *envelopeUseCaseWithMetrics) Destroy(ctx context.Context, envelopeID uuid.UUID, actor string) error {
	start := time.Now()
	err := e.next.Destroy(ctx, envelopeID, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "envelope_destroy", status)
	e.metrics.RecordDuration(ctx, "envelope", "envelope_destroy", time.Since(start), status)

	return err
}

// Get records metrics for envelope metadata retrieval.
func (e *envelopeUseCaseWithMetrics) Get(ctx context.Context, envelopeID uuid.UUID) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	envelope, err := e.next.Get(ctx, envelopeID)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "envelope_get", status)
	e.metrics.RecordDuration(ctx, "envelope", "envelope_get", time.Since(start), status)

	return envelope, err
}

// ListBySubject records metrics for envelope listing.
func (e *envelopeUseCaseWithMetrics) ListBySubject(
	ctx context.Context,
	subjectID uuid.UUID,
	offset, limit int,
) ([]*envelopeDomain.Envelope, error) {
	start := time.Now()
	envelopes, err := e.next.ListBySubject(ctx, subjectID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "envelope", "envelope_list", status)
	e.metrics.RecordDuration(ctx, "envelope", "envelope_list", time.Since(start), status)

	return envelopes, err
}
