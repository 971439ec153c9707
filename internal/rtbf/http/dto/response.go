package dto

import (
	"time"

	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
)

// DeletionRequestResponse represents a deletion request in API responses.
type DeletionRequestResponse struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"subject_id"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// MapRequestToResponse converts a domain deletion request to an API response.
func MapRequestToResponse(request *rtbfDomain.DeletionRequest) DeletionRequestResponse {
	return DeletionRequestResponse{
		ID:          request.ID.String(),
		SubjectID:   request.SubjectID.String(),
		Status:      string(request.Status),
		Attempts:    request.Attempts,
		LastError:   request.LastError,
		RequestedAt: request.RequestedAt,
		ProcessedAt: request.ProcessedAt,
	}
}
