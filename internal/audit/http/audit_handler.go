// Package http provides HTTP handlers for querying the audit ledger.
// The ledger is append-only: no write endpoints exist.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	"github.com/allisson/piivault/internal/audit/http/dto"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	"github.com/allisson/piivault/internal/httputil"
)

// AuditHandler handles HTTP requests for audit ledger queries.
type AuditHandler struct {
	auditUseCase auditUseCase.AuditUseCase
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(auditUseCase auditUseCase.AuditUseCase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// ListHandler retrieves audit entries newest first with optional filters.
// GET /v1/audit-entries?subject_id=&action=&outcome=&created_at_from=&created_at_to=&offset=0&limit=50
// Returns 200 OK with the paginated entry list.
func (h *AuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	entries, err := h.auditUseCase.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEntriesToListResponse(entries))
}

// parseFilter builds an entry filter from query parameters. Timestamps are
// RFC 3339; subject_id must be a UUID.
func parseFilter(c *gin.Context) (*auditDomain.Filter, error) {
	filter := &auditDomain.Filter{
		Action:  auditDomain.Action(c.Query("action")),
		Outcome: auditDomain.Outcome(c.Query("outcome")),
	}

	if raw := c.Query("subject_id"); raw != "" {
		subjectID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid subject_id parameter: must be a UUID")
		}
		filter.SubjectID = &subjectID
	}

	if raw := c.Query("created_at_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at_from parameter: must be RFC 3339")
		}
		filter.CreatedAtFrom = &from
	}

	if raw := c.Query("created_at_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at_to parameter: must be RFC 3339")
		}
		filter.CreatedAtTo = &to
	}

	return filter, nil
}
