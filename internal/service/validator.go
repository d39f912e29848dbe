package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/ivc-chiapas/folios-console/internal/models"
)

// NewValidator returns a validator with the console's custom rules
// registered.
func NewValidator() *validator.Validate {
	return RegisterRules(validator.New())
}

// RegisterRules adds the console's custom rules to v. Registering twice
// replaces the rule with an identical one.
func RegisterRules(v *validator.Validate) *validator.Validate {
	_ = v.RegisterValidation("education_level", func(fl validator.FieldLevel) bool {
		return models.IsEducationLevel(fl.Field().String())
	})
	return v
}
