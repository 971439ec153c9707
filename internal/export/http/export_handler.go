// Package http provides the HTTP handler for subject data exports.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/export/http/dto"
	exportUseCase "github.com/allisson/piivault/internal/export/usecase"
	"github.com/allisson/piivault/internal/httputil"
)

// ExportHandler handles HTTP requests for subject data exports.
type ExportHandler struct {
	exportUseCase exportUseCase.ExportUseCase
	logger        *slog.Logger
}

// NewExportHandler creates a new export handler with required dependencies.
func NewExportHandler(exportUseCase exportUseCase.ExportUseCase, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exportUseCase: exportUseCase,
		logger:        logger,
	}
}

// ExportHandler assembles and returns the subject's data access bundle. With
// an export recipient configured the payload is age-encrypted and returned
// base64-encoded; otherwise the bundle is returned as plain JSON.
// GET /v1/subjects/:subject_id/export
// Returns 200 OK.
func (h *ExportHandler) ExportHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return
	}

	bundle, err := h.exportUseCase.Export(c.Request.Context(), subjectID, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	data, encrypted, err := h.exportUseCase.Encode(bundle)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if encrypted {
		c.JSON(http.StatusOK, dto.EncryptedExportResponse{
			SubjectID: subjectID.String(),
			Encrypted: true,
			Data:      base64.StdEncoding.EncodeToString(data),
		})
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}
