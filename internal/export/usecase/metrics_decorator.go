package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	exportDomain "github.com/allisson/piivault/internal/export/domain"
	"github.com/allisson/piivault/internal/metrics"
)

// exportUseCaseWithMetrics decorates ExportUseCase with metrics
// instrumentation.
type exportUseCaseWithMetrics struct {
	next    ExportUseCase
	metrics metrics.BusinessMetrics
}

// NewExportUseCaseWithMetrics wraps an ExportUseCase with metrics recording.
func NewExportUseCaseWithMetrics(useCase ExportUseCase, m metrics.BusinessMetrics) ExportUseCase {
	return &exportUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Export records metrics for subject exports.
func (d *exportUseCaseWithMetrics) Export(
	ctx context.Context,
	subjectID uuid.UUID,
	actor string,
) (*exportDomain.Bundle, error) {
	start := time.Now()
	bundle, err := d.next.Export(ctx, subjectID, actor)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "export", "subject_export", status)
	d.metrics.RecordDuration(ctx, "export", "subject_export", time.Since(start), status)

	return bundle, err
}

// Encode is pure serialization and is passed through unmeasured.
func (d *exportUseCaseWithMetrics) Encode(bundle *exportDomain.Bundle) ([]byte, bool, error) {
	return d.next.Encode(bundle)
}
