package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown next to a failing field.
const (
	MsgPersonName     = "Only letters and spaces, min 2, max 25."
	MsgEmail          = "Invalid email."
	MsgPassword       = "1 number, 1 letter, min 6."
	MsgRepeatPassword = "Passwords don't match."
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ ]{2,25}$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// RE2 has no lookahead, so the password rule is three patterns.
	passwordLength = regexp.MustCompile(`^[^\n\r\x{2028}\x{2029}]{6,}$`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	passwordLetter = regexp.MustCompile(`[a-zA-Z]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so error maps match the wire format
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"person_name": func(fl validator.FieldLevel) bool {
			return personNamePattern.MatchString(fl.Field().String())
		},
		"email_address": func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		},
		"password_rule": func(fl validator.FieldLevel) bool {
			return IsValidPassword(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

// IsValidPassword reports whether password has at least one digit, one ASCII
// letter and six characters.
func IsValidPassword(password string) bool {
	return passwordLength.MatchString(password) &&
		passwordDigit.MatchString(password) &&
		passwordLetter.MatchString(password)
}

// ValidateLogin checks the login form.
func ValidateLogin(values LoginValues) Errors {
	return validateStruct(values)
}

// ValidateSignup checks the signup form. Every failing field gets an entry.
func ValidateSignup(values SignupValues) Errors {
	return validateStruct(values)
}

func validateStruct(s interface{}) Errors {
	errs := Errors{}

	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[FieldGeneral] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		errs[fe.Field()] = messageFor(fe.Field())
	}
	return errs
}

func messageFor(field string) string {
	switch field {
	case FieldName, FieldUniversity:
		return MsgPersonName
	case FieldEmail:
		return MsgEmail
	case FieldPassword:
		return MsgPassword
	case FieldRepeatPassword:
		return MsgRepeatPassword
	default:
		return "Invalid value."
	}
}

// ValidateName returns the error message for a name, or "" when valid.
func ValidateName(name string) string {
	return validateVar(name, "person_name", MsgPersonName)
}

// ValidateUniversity returns the error message for a university, or "".
func ValidateUniversity(university string) string {
	return validateVar(university, "person_name", MsgPersonName)
}

// ValidateEmail returns the error message for an email, or "".
func ValidateEmail(email string) string {
	return validateVar(email, "email_address", MsgEmail)
}

// ValidatePassword returns the error message for a password, or "".
func ValidatePassword(password string) string {
	return validateVar(password, "password_rule", MsgPassword)
}

// ValidateRepeatPassword compares the two entries exactly.
func ValidateRepeatPassword(password, repeatPassword string) string {
	if password != repeatPassword {
		return MsgRepeatPassword
	}
	return ""
}

func validateVar(value, tag, msg string) string {
	if err := validate.Var(value, tag); err != nil {
		return msg
	}
	return ""
}
