// Package dto provides data transfer objects for subject export responses.
package dto

// EncryptedExportResponse wraps an age-encrypted export payload. Data is the
// base64-encoded ciphertext; only the holder of the matching identity can
// read it.
type EncryptedExportResponse struct {
	SubjectID string `json:"subject_id"`
	Encrypted bool   `json:"encrypted"`
	Data      string `json:"data"`
}
