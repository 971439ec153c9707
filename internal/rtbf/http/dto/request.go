// Package dto provides data transfer objects for deletion request endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/piivault/internal/validation"
)

// SubmitDeletionRequest contains the parameters for submitting a deletion
// request. The handler parses SubjectID into a UUID.
type SubmitDeletionRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
}

// Validate checks if the submit deletion request is valid.
func (r *SubmitDeletionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
