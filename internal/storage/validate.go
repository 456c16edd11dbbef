package storage

import (
	"github.com/go-playground/validator/v10"

	"estate_bot/internal/filter"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// numrange accepts "min:max" tokens with numeric or empty sides.
	_ = v.RegisterValidation("numrange", func(fl validator.FieldLevel) bool {
		return filter.ValidateRange(fl.Field().String()) == nil
	})
	return v
}

// Validate checks a struct against its validation tags, including the custom
// numrange tag used by filter sets.
func Validate(s any) error {
	return validate.Struct(s)
}
