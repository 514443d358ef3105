package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kiasilver/rozegar-sub005/internal/util"
)

// Validator is a wrapper around the validator library with the custom rules
// the automation settings use.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator instance. Registers:
//   - hhmm: a "HH:MM" schedule time, Persian digits accepted
//   - hourlist: a comma-separated list of hours like "10,14,18"
func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, _, ok := util.ParseHHMM(fl.Field().String())
		return ok
	})

	_ = v.RegisterValidation("hourlist", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		return len(util.ParseHourList(s)) > 0
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct based on its tags.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
