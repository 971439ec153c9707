// Package dto provides data transfer objects for envelope record requests and
// responses.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/piivault/internal/validation"
)

// SealRecordRequest contains the parameters for sealing a PII record. Data
// carries the plaintext base64-encoded.
type SealRecordRequest struct {
	Label string `json:"label" binding:"required"`
	Data  string `json:"data" binding:"required"`
}

// Validate checks if the seal record request is valid.
func (r *SealRecordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Data,
			validation.Required,
			customValidation.Base64,
		),
	)
}
