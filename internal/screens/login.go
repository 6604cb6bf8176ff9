package screens

import (
	"context"

	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/session"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
)

// LoginForm is the login screen
type LoginForm struct {
	formState

	api      API
	session  *session.Provider
	snackbar *snackbar.Provider
	logger   zerolog.Logger
}

// NewLoginForm creates an empty login form
func NewLoginForm(api API, sess *session.Provider, snack *snackbar.Provider, logger zerolog.Logger) *LoginForm {
	return &LoginForm{
		formState: formState{values: forms.Values{}, errors: forms.Errors{}},
		api:       api,
		session:   sess,
		snackbar:  snack,
		logger:    logger,
	}
}

// Submit validates the form and logs in. Validation and server field
// failures are returned as forms.Errors; a transport failure is toasted and
// returned as is.
func (f *LoginForm) Submit(ctx context.Context) error {
	values, errs := f.begin(func(v forms.Values) forms.Errors {
		return forms.ValidateLogin(v.Login())
	})
	if !errs.Empty() {
		return errs
	}
	login := values.Login()

	_, err := f.api.Login(ctx, login.Email, login.Password)
	if err != nil {
		if fieldErrs, ok := serverErrors(err); ok {
			f.finish(fieldErrs)
			return fieldErrs
		}
		f.finish(nil)
		f.logger.Error().Err(err).Msg("Login request failed")
		f.snackbar.Show(MsgSubmitFailed, snackbar.SeverityError)
		return err
	}

	f.finish(forms.Errors{})
	f.snackbar.Show(MsgLoggedIn, snackbar.SeveritySuccess)
	f.logger.Info().Str("email", login.Email).Msg("Logged in")

	if err := f.session.Reload(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("Session reload after login failed")
		return err
	}
	return nil
}
