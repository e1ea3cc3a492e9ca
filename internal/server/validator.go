package server

import (
	"github.com/go-playground/validator/v10"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
)

// echoValidator adapts go-playground/validator to echo's Validator so
// handlers get a 400 with a stable message for invalid bodies.
type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return apperr.BadRequest("invalid request body").WithCause(err)
	}
	return nil
}
