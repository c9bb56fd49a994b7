// Package validation checks request payloads and password strength.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "ADMIN", "EDITOR", "VIEWER":
			return true
		}
		return false
	})
}

// ErrWeakPassword is returned by StrongPassword.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain a lowercase letter, an uppercase letter, a digit and a symbol")

// MinPasswordLength is the shortest password StrongPassword accepts.
const MinPasswordLength = 8

// StrongPassword requires MinPasswordLength runes with at least one lowercase,
// one uppercase, one digit and one symbol.
func StrongPassword(pw string) error {
	var lower, upper, digit, symbol bool
	n := 0
	for _, r := range pw {
		n++
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if n < MinPasswordLength || !lower || !upper || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

var messages = map[string]string{
	"required":       "%s should not be empty",
	"email":          "%s must be an email",
	"min":            "%s must be at least %s characters long",
	"max":            "%s must be no longer than %s characters",
	"uuid4":          "%s must be a UUID",
	"strongpassword": "%s is not strong enough",
	"role":           "%s must be one of ADMIN, EDITOR, VIEWER",
}

func message(e validator.FieldError) string {
	if msg, ok := messages[e.Tag()]; ok {
		if strings.Count(msg, "%s") == 2 {
			return fmt.Sprintf(msg, e.Field(), e.Param())
		}
		return fmt.Sprintf(msg, e.Field())
	}
	return fmt.Sprintf("%s is invalid: %s", e.Field(), e.Tag())
}

// Struct validates s by its `validate` tags. Failures come back as an
// errs.ErrBadRequest carrying one sentence per offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, message(e))
	}
	sort.Strings(out)
	return errs.E(errs.ErrBadRequest, strings.Join(out, "; "))
}
