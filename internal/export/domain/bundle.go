// Package domain defines the subject data export bundle: everything the
// engine holds about one data subject, assembled for portability requests.
package domain

import (
	"time"
)

// Bundle is the full data access package for one subject. Record data is
// base64-encoded plaintext; destroyed records appear with metadata only.
type Bundle struct {
	Subject          SubjectData           `json:"subject"`
	Records          []RecordData          `json:"records"`
	Consents         []ConsentData         `json:"consents"`
	DeletionRequests []DeletionRequestData `json:"deletion_requests"`
	ExportedAt       time.Time             `json:"exported_at"`
}

// SubjectData is the subject metadata included in an export.
type SubjectData struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	ErasedAt  *time.Time `json:"erased_at,omitempty"`
}

// RecordData is one sealed record in an export. Data holds the decrypted
// plaintext base64-encoded and is empty for destroyed records.
type RecordData struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	AlgorithmID string     `json:"algorithm_id"`
	Data        string     `json:"data,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DestroyedAt *time.Time `json:"destroyed_at,omitempty"`
}

// ConsentData is one consent history entry in an export.
type ConsentData struct {
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	CreatedAt time.Time `json:"created_at"`
}

// DeletionRequestData is one deletion request in an export.
type DeletionRequestData struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
