package screens

import (
	"context"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
)

// SignupForm is the account creation screen
type SignupForm struct {
	formState

	api      API
	snackbar *snackbar.Provider
	logger   zerolog.Logger
}

// NewSignupForm creates an empty signup form
func NewSignupForm(api API, snack *snackbar.Provider, logger zerolog.Logger) *SignupForm {
	return &SignupForm{
		formState: formState{values: forms.Values{}, errors: forms.Errors{}},
		api:       api,
		snackbar:  snack,
		logger:    logger,
	}
}

// Submit validates the form and creates the account. Nothing is sent while
// any field fails validation.
func (f *SignupForm) Submit(ctx context.Context) error {
	values, errs := f.begin(func(v forms.Values) forms.Errors {
		return forms.ValidateSignup(v.Signup())
	})
	if !errs.Empty() {
		return errs
	}
	signup := values.Signup()

	_, err := f.api.Signup(ctx, client.SignupRequest{
		Name:           signup.Name,
		University:     signup.University,
		Email:          signup.Email,
		Password:       signup.Password,
		RepeatPassword: signup.RepeatPassword,
	})
	if err != nil {
		if fieldErrs, ok := serverErrors(err); ok {
			f.finish(fieldErrs)
			return fieldErrs
		}
		f.finish(nil)
		f.logger.Error().Err(err).Msg("Signup request failed")
		f.snackbar.Show(MsgSubmitFailed, snackbar.SeverityError)
		return err
	}

	f.finish(forms.Errors{})
	f.snackbar.Show(MsgSignedUp, snackbar.SeveritySuccess)
	f.logger.Info().Str("email", signup.Email).Msg("Account created")
	return nil
}
