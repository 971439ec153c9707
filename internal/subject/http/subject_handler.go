// Package http provides HTTP handlers for the data subject registry.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
	"github.com/allisson/piivault/internal/subject/http/dto"
	subjectUseCase "github.com/allisson/piivault/internal/subject/usecase"
	customValidation "github.com/allisson/piivault/internal/validation"
)

// SubjectHandler handles HTTP requests for subject registration and lookup.
type SubjectHandler struct {
	subjectUseCase subjectUseCase.SubjectUseCase
	logger         *slog.Logger
}

// NewSubjectHandler creates a new subject handler with required dependencies.
func NewSubjectHandler(subjectUseCase subjectUseCase.SubjectUseCase, logger *slog.Logger) *SubjectHandler {
	return &SubjectHandler{
		subjectUseCase: subjectUseCase,
		logger:         logger,
	}
}

// RegisterHandler registers a new data subject.
// POST /v1/subjects
// Returns 201 Created with the subject metadata.
func (h *SubjectHandler) RegisterHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	var req dto.RegisterSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	subject, err := h.subjectUseCase.Register(c.Request.Context(), subjectDomain.RegisterSubjectInput{
		Email: req.Email,
	}, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSubjectToResponse(subject))
}

// GetHandler retrieves a subject by id. Erased subjects remain readable so
// callers can observe deletion status.
// GET /v1/subjects/:subject_id
// Returns 200 OK with the subject metadata.
func (h *SubjectHandler) GetHandler(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return
	}

	subject, err := h.subjectUseCase.Get(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSubjectToResponse(subject))
}

// GetByEmailHandler looks up a subject by email address.
// GET /v1/subjects?email=
// Returns 200 OK with the subject metadata.
func (h *SubjectHandler) GetByEmailHandler(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("email parameter is required"), h.logger)
		return
	}

	subject, err := h.subjectUseCase.GetByEmail(c.Request.Context(), email)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSubjectToResponse(subject))
}
