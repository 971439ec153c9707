package dto

import (
	"time"

	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
)

// EnvelopeResponse represents envelope metadata in API responses. Ciphertext
// and key material are never exposed.
type EnvelopeResponse struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"subject_id"`
	Label       string     `json:"label"`
	AlgorithmID string     `json:"algorithm_id"`
	MasterKeyID string     `json:"master_key_id"`
	CreatedAt   time.Time  `json:"created_at"`
	DestroyedAt *time.Time `json:"destroyed_at,omitempty"`
}

// MapEnvelopeToResponse converts a domain envelope to an API response.
func MapEnvelopeToResponse(envelope *envelopeDomain.Envelope) EnvelopeResponse {
	return EnvelopeResponse{
		ID:          envelope.ID.String(),
		SubjectID:   envelope.SubjectID.String(),
		Label:       envelope.Label,
		AlgorithmID: string(envelope.AlgorithmID),
		MasterKeyID: envelope.MasterKeyID,
		CreatedAt:   envelope.CreatedAt,
		DestroyedAt: envelope.DestroyedAt,
	}
}

// ListEnvelopesResponse represents a list of envelope metadata.
type ListEnvelopesResponse struct {
	Data   []EnvelopeResponse `json:"data"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// MapEnvelopesToListResponse converts a slice of domain envelopes to a list response.
func MapEnvelopesToListResponse(envelopes []*envelopeDomain.Envelope, offset, limit int) ListEnvelopesResponse {
	data := make([]EnvelopeResponse, 0, len(envelopes))
	for _, envelope := range envelopes {
		data = append(data, MapEnvelopeToResponse(envelope))
	}

	return ListEnvelopesResponse{
		Data:   data,
		Offset: offset,
		Limit:  limit,
	}
}

// OpenRecordResponse carries the decrypted plaintext, base64-encoded.
type OpenRecordResponse struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}
