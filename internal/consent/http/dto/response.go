package dto

import (
	"time"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
)

// ConsentRecordResponse represents a consent record in API responses.
type ConsentRecordResponse struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	CreatedAt time.Time `json:"created_at"`
}

// MapRecordToResponse converts a domain consent record to an API response.
func MapRecordToResponse(record *consentDomain.ConsentRecord) ConsentRecordResponse {
	return ConsentRecordResponse{
		ID:        record.ID.String(),
		SubjectID: record.SubjectID.String(),
		Purpose:   record.Purpose,
		Granted:   record.Granted,
		CreatedAt: record.CreatedAt,
	}
}

// ListConsentRecordsResponse represents a list of consent records.
type ListConsentRecordsResponse struct {
	Data []ConsentRecordResponse `json:"data"`
}

// MapRecordsToListResponse converts a slice of domain records to a list response.
func MapRecordsToListResponse(records []*consentDomain.ConsentRecord) ListConsentRecordsResponse {
	data := make([]ConsentRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, MapRecordToResponse(record))
	}

	return ListConsentRecordsResponse{
		Data: data,
	}
}

// ConsentStatusResponse represents the current consent decision for one
// purpose. A subject with no record for the purpose reports granted=false.
type ConsentStatusResponse struct {
	SubjectID string `json:"subject_id"`
	Purpose   string `json:"purpose"`
	Granted   bool   `json:"granted"`
}
