// Package http provides HTTP handlers for the consent registry.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/piivault/internal/consent/http/dto"
	consentUseCase "github.com/allisson/piivault/internal/consent/usecase"
	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
	customValidation "github.com/allisson/piivault/internal/validation"
)

// ConsentHandler handles HTTP requests for consent decisions.
type ConsentHandler struct {
	consentUseCase consentUseCase.ConsentUseCase
	logger         *slog.Logger
}

// NewConsentHandler creates a new consent handler with required dependencies.
func NewConsentHandler(consentUseCase consentUseCase.ConsentUseCase, logger *slog.Logger) *ConsentHandler {
	return &ConsentHandler{
		consentUseCase: consentUseCase,
		logger:         logger,
	}
}

// SetConsentHandler records a consent decision for a purpose.
// PUT /v1/subjects/:subject_id/consents
// Returns 200 OK with the appended consent record.
func (h *ConsentHandler) SetConsentHandler(c *gin.Context) {
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

	var req dto.SetConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, err := h.consentUseCase.SetConsent(c.Request.Context(), subjectID, req.Purpose, *req.Granted, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}

// ListCurrentHandler retrieves the current consent state per purpose.
// GET /v1/subjects/:subject_id/consents
// Returns 200 OK with the latest record for each purpose.
func (h *ConsentHandler) ListCurrentHandler(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return
	}

	records, err := h.consentUseCase.ListCurrent(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordsToListResponse(records))
}

// GetStatusHandler reports whether the latest record for a purpose grants
// access. A purpose with no record reports granted=false.
// GET /v1/subjects/:subject_id/consents/:purpose
// Returns 200 OK with the consent decision.
func (h *ConsentHandler) GetStatusHandler(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return
	}

	purpose := c.Param("purpose")
	if purpose == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("purpose parameter is required"), h.logger)
		return
	}

	granted, err := h.consentUseCase.IsGranted(c.Request.Context(), subjectID, purpose)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ConsentStatusResponse{
		SubjectID: subjectID.String(),
		Purpose:   purpose,
		Granted:   granted,
	})
}
