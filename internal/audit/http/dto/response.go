// Package dto provides data transfer objects for audit ledger responses.
package dto

import (
	"encoding/base64"
	"time"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
)

// AuditEntryResponse represents an audit entry in API responses. Hashes and
// signatures are base64-encoded so offline verification tooling can consume
// them directly.
type AuditEntryResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	ActorID      string    `json:"actor_id"`
	Action       string    `json:"action"`
	SubjectID    string    `json:"subject_id,omitempty"`
	EnvelopeID   string    `json:"envelope_id,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	PrevHash     string    `json:"prev_hash"`
	EntryHash    string    `json:"entry_hash"`
	Signature    string    `json:"signature"`
	SigningKeyID string    `json:"signing_key_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// MapEntryToResponse converts a domain audit entry to an API response.
func MapEntryToResponse(entry *auditDomain.Entry) AuditEntryResponse {
	response := AuditEntryResponse{
		ID:           entry.ID.String(),
		RequestID:    entry.RequestID,
		ActorID:      entry.ActorID,
		Action:       string(entry.Action),
		Outcome:      string(entry.Outcome),
		Detail:       entry.Detail,
		PrevHash:     base64.StdEncoding.EncodeToString(entry.PrevHash),
		EntryHash:    base64.StdEncoding.EncodeToString(entry.EntryHash),
		Signature:    base64.StdEncoding.EncodeToString(entry.Signature),
		SigningKeyID: entry.SigningKeyID,
		CreatedAt:    entry.CreatedAt,
	}

	if entry.SubjectID != nil {
		response.SubjectID = entry.SubjectID.String()
	}
	if entry.EnvelopeID != nil {
		response.EnvelopeID = entry.EnvelopeID.String()
	}

	return response
}

// ListAuditEntriesResponse represents a paginated list of audit entries.
type ListAuditEntriesResponse struct {
	Data []AuditEntryResponse `json:"data"`
}

// MapEntriesToListResponse converts a slice of domain entries to a list response.
func MapEntriesToListResponse(entries []*auditDomain.Entry) ListAuditEntriesResponse {
	data := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapEntryToResponse(entry))
	}

	return ListAuditEntriesResponse{
		Data: data,
	}
}
