package dto

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

var validate = validator.New()

// Validate checks struct tags and converts failures into the shared
// validation error shape, one detail entry per offending field.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	details := make(map[string]any, len(invalid))
	for _, fieldErr := range invalid {
		details[strings.ToLower(fieldErr.Field())] = fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
	return apperrors.NewValidationFailure("invalid payload", details)
}
