// Package screens drives the login, signup and settings forms: validation,
// the REST call, and the resulting toast and session update.
package screens

import (
	"context"
	"errors"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/forms"
)

// Toast texts
const (
	MsgSubmitFailed    = "An error occurred while submitting the form"
	MsgLoggedIn        = "Logged in successfully!"
	MsgSignedUp        = "Signup successfully, check your email for confirmation"
	MsgPasswordUpdated = "Password updated successfully!"
	MsgPasswordsDiffer = "Passwords do not match"
)

// API is the subset of the REST client the screens need
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Signup(ctx context.Context, req client.SignupRequest) (*client.Envelope, error)
	ModifyName(ctx context.Context, name string) (*client.Envelope, error)
	ModifyUniversity(ctx context.Context, university string) (*client.Envelope, error)
	ModifyEmail(ctx context.Context, email string) (*client.Envelope, error)
	UpdatePassword(ctx context.Context, newPassword, repeatNewPassword string) (*client.Envelope, error)
	DeleteAccount(ctx context.Context) (*client.Envelope, error)
	TakeFlag(name string) (string, bool)
}

// serverErrors extracts the field errors of a rejected submission. ok is
// false for transport failures, which carry no field information.
func serverErrors(err error) (forms.Errors, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}

	errs := forms.Errors{}
	for field, msg := range apiErr.Errors {
		errs[field] = msg
	}
	if errs.Empty() {
		errs[forms.FieldGeneral] = apiErr.Error()
	}
	return errs, true
}
