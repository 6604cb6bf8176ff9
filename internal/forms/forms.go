// Package forms holds form state, error state and the field validation rules
// shared by the login, signup and settings screens.
package forms

import (
	"fmt"
	"sort"
	"strings"
)

// Field names, as sent on the wire and used as error map keys.
const (
	FieldName           = "name"
	FieldUniversity     = "university"
	FieldEmail          = "email"
	FieldPassword       = "password"
	FieldRepeatPassword = "repeatPassword"
	FieldGeneral        = "general"
)

// Values is the per-form mapping of field name to its current string value.
type Values map[string]string

// Set stores value under field, mirroring an input change event.
func (v Values) Set(field, value string) {
	v[field] = value
}

// Errors maps a field name to a human readable message. An empty map means
// the form may be submitted.
type Errors map[string]string

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Has reports whether field carries an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Error implements error so a failed submission can be returned directly.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, "; ")
}

// LoginValues is the login form.
type LoginValues struct {
	Email    string `json:"email" validate:"email_address"`
	Password string `json:"password" validate:"password_rule"`
}

// Values returns the form as a field map.
func (l LoginValues) Values() Values {
	return Values{FieldEmail: l.Email, FieldPassword: l.Password}
}

// SignupValues is the signup form.
type SignupValues struct {
	Name           string `json:"name" validate:"person_name"`
	University     string `json:"university" validate:"person_name"`
	Email          string `json:"email" validate:"email_address"`
	Password       string `json:"password" validate:"password_rule"`
	RepeatPassword string `json:"repeatPassword" validate:"eqfield=Password"`
}

// Values returns the form as a field map.
func (s SignupValues) Values() Values {
	return Values{
		FieldName:           s.Name,
		FieldUniversity:     s.University,
		FieldEmail:          s.Email,
		FieldPassword:       s.Password,
		FieldRepeatPassword: s.RepeatPassword,
	}
}

// Login reads the login fields out of v.
func (v Values) Login() LoginValues {
	return LoginValues{Email: v[FieldEmail], Password: v[FieldPassword]}
}

// Signup reads the signup fields out of v.
func (v Values) Signup() SignupValues {
	return SignupValues{
		Name:           v[FieldName],
		University:     v[FieldUniversity],
		Email:          v[FieldEmail],
		Password:       v[FieldPassword],
		RepeatPassword: v[FieldRepeatPassword],
	}
}
