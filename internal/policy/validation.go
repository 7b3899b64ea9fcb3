package policy

import (
	"time"

	"hr-leave/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

func validateDateYMD(fl validator.FieldLevel) bool {
	_, err := time.Parse(apperror.DateLayout, fl.Field().String())
	return err == nil
}
