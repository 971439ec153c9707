package dto

import (
	"time"

	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// SubjectResponse represents a data subject in API responses. Erased subjects
// carry their tombstone email and the erasure timestamp.
type SubjectResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	ErasedAt  *time.Time `json:"erased_at,omitempty"`
}

// MapSubjectToResponse converts a domain subject to an API response.
func MapSubjectToResponse(subject *subjectDomain.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        subject.ID.String(),
		Email:     subject.Email,
		CreatedAt: subject.CreatedAt,
		ErasedAt:  subject.ErasedAt,
	}
}
