package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	rtbfUseCase "github.com/allisson/piivault/internal/rtbf/usecase"
)

// RunSubmitDeletionRequest submits a right-to-be-forgotten request for a
// subject. The request starts in pending state and is drained by the worker or
// by the process-deletion-requests command.
func RunSubmitDeletionRequest(
	ctx context.Context,
	deletionRequestUC rtbfUseCase.DeletionRequestUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subjectID string,
	actor string,
) error {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return fmt.Errorf("invalid subject id: %w", err)
	}

	request, err := deletionRequestUC.Submit(ctx, id, actor)
	if err != nil {
		return fmt.Errorf("failed to submit deletion request: %w", err)
	}

	logger.Info("deletion request submitted",
		slog.String("request_id", request.ID.String()),
		slog.String("subject_id", request.SubjectID.String()),
	)

	_, _ = fmt.Fprintf(writer, "Deletion request submitted\n")
	_, _ = fmt.Fprintf(writer, "  Request ID:   %s\n", request.ID)
	_, _ = fmt.Fprintf(writer, "  Subject ID:   %s\n", request.SubjectID)
	_, _ = fmt.Fprintf(writer, "  Status:       %s\n", request.Status)
	_, _ = fmt.Fprintf(writer, "  Requested At: %s\n", request.RequestedAt.Format("2006-01-02 15:04:05"))

	return nil
}
