// Package domain contains right-to-be-forgotten entities. A deletion request
// moves Pending -> Processing -> Completed or Failed; Failed requests are
// retried up to a bounded attempt count, after which they require operator
// intervention.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/piivault/internal/errors"
)

// Status is the deletion request lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DefaultMaxAttempts is the retry bound applied when no limit is configured.
const DefaultMaxAttempts = 3

// DeletionRequest represents one erasure request for a subject. At most one
// active (pending or processing) request exists per subject.
type DeletionRequest struct {
	ID          uuid.UUID  `json:"id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	Status      Status     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Active reports whether the request still claims the subject's single
// active-request slot.
func (r *DeletionRequest) Active() bool {
	return r.Status == StatusPending || r.Status == StatusProcessing
}

// Retryable reports whether a failed request may still be re-processed under
// the given attempt limit.
func (r *DeletionRequest) Retryable(maxAttempts int) bool {
	return r.Status == StatusFailed && r.Attempts < maxAttempts
}

var (
	// ErrDeletionRequestNotFound indicates the requested deletion request does
	// not exist.
	ErrDeletionRequestNotFound = apperrors.Wrap(apperrors.ErrNotFound, "deletion request not found")

	// ErrActiveRequestExists indicates the subject already has a pending or
	// processing deletion request.
	ErrActiveRequestExists = apperrors.Wrap(apperrors.ErrConflict, "an active deletion request already exists for this subject")

	// ErrDeletionInProgress indicates PII access was denied because the
	// subject's data is being erased.
	ErrDeletionInProgress = apperrors.Wrap(apperrors.ErrForbidden, "deletion in progress")

	// ErrDeletionCompleted indicates PII access was denied because the
	// subject's data has been erased.
	ErrDeletionCompleted = apperrors.Wrap(apperrors.ErrForbidden, "deletion completed")

	// ErrRetryExhausted indicates a failed request has used up its retry
	// budget and needs operator intervention.
	ErrRetryExhausted = apperrors.Wrap(apperrors.ErrLocked, "deletion retries exhausted")
)
