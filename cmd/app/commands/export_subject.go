package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	exportUseCase "github.com/allisson/piivault/internal/export/usecase"
)

// RunExportSubject assembles the full data access bundle for a subject and
// writes the encoded payload to outputPath, or to the writer when outputPath
// is empty. The payload is age-encrypted when an export recipient is
// configured, plain JSON otherwise.
func RunExportSubject(
	ctx context.Context,
	exportUC exportUseCase.ExportUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subjectID string,
	actor string,
	outputPath string,
) error {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return fmt.Errorf("invalid subject id: %w", err)
	}

	bundle, err := exportUC.Export(ctx, id, actor)
	if err != nil {
		return fmt.Errorf("failed to export subject data: %w", err)
	}

	data, encrypted, err := exportUC.Encode(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode export bundle: %w", err)
	}

	logger.Info("subject data exported",
		slog.String("subject_id", subjectID),
		slog.Int("records", len(bundle.Records)),
		slog.Bool("encrypted", encrypted),
	)

	if outputPath == "" {
		_, err = writer.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write export data: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Export written to %s (encrypted: %t)\n", outputPath, encrypted)
	return nil
}
