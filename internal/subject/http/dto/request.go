// Package dto provides data transfer objects for subject registry requests
// and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/piivault/internal/validation"
)

// RegisterSubjectRequest contains the parameters for registering a data subject.
type RegisterSubjectRequest struct {
	Email string `json:"email" binding:"required"`
}

// Validate checks if the register subject request is valid.
func (r *RegisterSubjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
