package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/metrics"
	"github.com/allisson/piivault/internal/subject/domain"
)

// subjectUseCaseWithMetrics decorates SubjectUseCase with metrics instrumentation.
type subjectUseCaseWithMetrics struct {
	next    SubjectUseCase
	metrics metrics.BusinessMetrics
}

// NewSubjectUseCaseWithMetrics wraps a SubjectUseCase with metrics recording.
func NewSubjectUseCaseWithMetrics(useCase SubjectUseCase, m metrics.BusinessMetrics) SubjectUseCase {
	return &subjectUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Register records metrics for subject registration.
func (s *subjectUseCaseWithMetrics) Register(
	ctx context.Context,
	input domain.RegisterSubjectInput,
	actor string,
) (*domain.Subject, error) {
	start := time.Now()
	subject, err := s.next.Register(ctx, input, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "subject", "subject_register", status)
	s.metrics.RecordDuration(ctx, "subject", "subject_register", time.Since(start), status)

	return subject, err
}

// Get records metrics for subject lookups by id.
func (s *subjectUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	start := time.Now()
	subject, err := s.next.Get(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "subject", "subject_get", status)
	s.metrics.RecordDuration(ctx, "subject", "subject_get", time.Since(start), status)

	return subject, err
}

// GetByEmail records metrics for subject lookups by email.
func (s *subjectUseCaseWithMetrics) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	start := time.Now()
	subject, err := s.next.GetByEmail(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "subject", "subject_get_by_email", status)
	s.metrics.RecordDuration(ctx, "subject", "subject_get_by_email", time.Since(start), status)

	return subject, err
}
