package core

import (
	"github.com/go-playground/validator/v10"

	"github.com/yizus58/api-zoo/internal/types"
)

// Validator wraps go-playground/validator for request DTO validation.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with struct-tag based rules.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateStruct validates a DTO and converts the first violation into an
// AppError carrying the offending field name.
func (v *Validator) ValidateStruct(dst interface{}) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		code := types.ErrCodeValidationMissingField
		if fe.Tag() == "email" {
			code = types.ErrCodeValidationInvalidEmail
		}
		appErr := types.NewAppError(code, "invalid request body", nil)
		appErr.Details = map[string]any{"field": fe.Field(), "rule": fe.Tag()}
		return appErr
	}

	return types.NewAppError(types.ErrCodeValidationInvalidBody, "invalid request body", err)
}
