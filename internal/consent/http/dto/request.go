// Package dto provides data transfer objects for consent registry requests
// and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/piivault/internal/validation"
)

// SetConsentRequest contains the parameters for recording a consent decision.
// Granted is a pointer so an explicit false survives required-field checks.
type SetConsentRequest struct {
	Purpose string `json:"purpose" binding:"required"`
	Granted *bool  `json:"granted" binding:"required"`
}

// Validate checks if the set consent request is valid.
func (r *SetConsentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Purpose,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Granted,
			validation.NotNil,
		),
	)
}
