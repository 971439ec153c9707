// Package http provides HTTP handlers for the envelope-encrypted PII store.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	"github.com/allisson/piivault/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/piivault/internal/envelope/usecase"
	apperrors "github.com/allisson/piivault/internal/errors"
	"github.com/allisson/piivault/internal/httputil"
	customValidation "github.com/allisson/piivault/internal/validation"
)

// EnvelopeHandler handles HTTP requests for sealed PII records.
type EnvelopeHandler struct {
	envelopeUseCase envelopeUseCase.EnvelopeUseCase
	logger          *slog.Logger
}

// NewEnvelopeHandler creates a new envelope handler with required dependencies.
func NewEnvelopeHandler(envelopeUseCase envelopeUseCase.EnvelopeUseCase, logger *slog.Logger) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// SealHandler encrypts and stores a PII record for a subject.
// POST /v1/subjects/:subject_id/records
// Returns 201 Created with the envelope metadata.
func (h *EnvelopeHandler) SealHandler(c *gin.Context) {
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

	var req dto.SealRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid data: must be valid base64-encoded data"), h.logger)
		return
	}

	envelope, err := h.envelopeUseCase.Seal(c.Request.Context(), subjectID, req.Label, plaintext, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEnvelopeToResponse(envelope))
}

// ListHandler retrieves envelope metadata for a subject, newest first.
// GET /v1/subjects/:subject_id/records
// Returns 200 OK with the envelope metadata list.
func (h *EnvelopeHandler) ListHandler(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	envelopes, err := h.envelopeUseCase.ListBySubject(c.Request.Context(), subjectID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEnvelopesToListResponse(envelopes, offset, limit))
}

// OpenHandler decrypts a sealed record and returns its plaintext. When the
// purpose query parameter is present the subject's consent for that purpose
// gates access.
// GET /v1/subjects/:subject_id/records/:envelope_id?purpose=
// Returns 200 OK with the base64-encoded plaintext.
func (h *EnvelopeHandler) OpenHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	subjectID, envelopeID, ok := h.parseRecordParams(c)
	if !ok {
		return
	}

	envelope, err := h.envelopeUseCase.Get(c.Request.Context(), envelopeID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if envelope.SubjectID != subjectID {
		httputil.HandleErrorGin(c, envelopeDomain.ErrEnvelopeNotFound, h.logger)
		return
	}

	purpose := c.Query("purpose")

	plaintext, err := h.envelopeUseCase.Open(c.Request.Context(), envelopeID, purpose, actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.OpenRecordResponse{
		ID:   envelopeID.String(),
		Data: base64.StdEncoding.EncodeToString(plaintext),
	})
}

// DestroyHandler scrubs a record's key material, making its plaintext
// permanently unrecoverable. Destroying an already-destroyed record succeeds.
// DELETE /v1/subjects/:subject_id/records/:envelope_id
// Returns 204 No Content.
func (h *EnvelopeHandler) DestroyHandler(c *gin.Context) {
	actor, ok := httputil.GetActor(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "actor not identified"), h.logger)
		return
	}

	subjectID, envelopeID, ok := h.parseRecordParams(c)
	if !ok {
		return
	}

	envelope, err := h.envelopeUseCase.Get(c.Request.Context(), envelopeID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if envelope.SubjectID != subjectID {
		httputil.HandleErrorGin(c, envelopeDomain.ErrEnvelopeNotFound, h.logger)
		return
	}

	if err := h.envelopeUseCase.Destroy(c.Request.Context(), envelopeID, actor); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseRecordParams parses the subject and envelope path parameters, writing
// the validation error response itself on failure.
func (h *EnvelopeHandler) parseRecordParams(c *gin.Context) (subjectID, envelopeID uuid.UUID, ok bool) {
	subjectID, err := uuid.Parse(c.Param("subject_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid subject_id parameter: must be a UUID"), h.logger)
		return uuid.Nil, uuid.Nil, false
	}

	envelopeID, err = uuid.Parse(c.Param("envelope_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid envelope_id parameter: must be a UUID"), h.logger)
		return uuid.Nil, uuid.Nil, false
	}

	return subjectID, envelopeID, true
}
