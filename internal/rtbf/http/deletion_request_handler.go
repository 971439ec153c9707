// Package http provides HTTP handlers for right-to-be-forgotten deletion
// requests.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
	"github.com/allisson/piivault/internal/rtbf/http/dto"
	rtbfUseCase "github.com/allisson/piivault/internal/rtbf/usecase"
	customValidation "github.com/allisson/piivault/internal/validation"
)

// DeletionRequestHandler handles HTTP requests for the deletion lifecycle.
type DeletionRequestHandler struct {
	deletionRequestUseCase rtbfUseCase.DeletionRequestUseCase
	logger                 *slog.Logger
}

// NewDeletionRequestHandler creates a new deletion request handler with
// required dependencies.
func NewDeletionRequestHandler(deletionRequestUseCase rtbfUseCase.DeletionRequestUseCase, logger *slog.Logger) *DeletionRequestHandler {
	return &DeletionRequestHandler{
		deletionRequestUseCase: deletionRequestUseCase,
		logger:                 logger,
	}
}

// SubmitHandler submits a new deletion request for a subject.
// POST /v1/deletion-requests
// Returns 201 Created with the pending request; 409 Conflict when the subject
// already has an active request.
func (h *DeletionRequestHandler) SubmitHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	var req dto.SubmitDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id: must be a UUID"), h.logger)
		return
	}

	request, err := h.deletionRequestUseCase.Submit(c.Request.Context(), subjectID, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapRequestToResponse(request))
}

// GetHandler retrieves a deletion request by id.
// GET /v1/deletion-requests/:id
// Returns 200 OK with the request state.
func (h *DeletionRequestHandler) GetHandler(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid id parameter: must be a UUID"), h.logger)
		return
	}

	request, err := h.deletionRequestUseCase.Get(c.Request.Context(), requestID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}

// ProcessHandler executes a deletion request synchronously. Processing an
// already-completed request is a no-op success.
// POST /v1/deletion-requests/:id/process
// Returns 200 OK with the resulting request state; 423 Locked when the retry
// budget is exhausted.
func (h *DeletionRequestHandler) ProcessHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid id parameter: must be a UUID"), h.logger)
		return
	}

	request, err := h.deletionRequestUseCase.Process(c.Request.Context(), requestID, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}
