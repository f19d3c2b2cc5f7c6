package services

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
