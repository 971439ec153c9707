package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rtbfUseCase "github.com/allisson/piivault/internal/rtbf/usecase"
)

// RunProcessDeletionRequests drains one batch of pending deletion requests
// and exits. Intended for cron-style operation as an alternative to the
// long-running worker.
func RunProcessDeletionRequests(
	ctx context.Context,
	worker *rtbfUseCase.Worker,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("processing pending deletion requests")

	if err := worker.ProcessPending(ctx); err != nil {
		return fmt.Errorf("failed to process pending deletion requests: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Pending deletion requests processed")
	return nil
}
