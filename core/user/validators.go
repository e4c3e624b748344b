package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

var (
	roleTag  = "role"
	roleText = "unknown role"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, roleTag, roleText)
}

// roleValidation only allows roles from the closed role set.
func roleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AllRoles {
		if role == val {
			return true
		}
	}
	return false
}
