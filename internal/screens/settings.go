package screens

import (
	"context"
	"sync"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/session"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
)

// Settings is the account settings panel. Each profile field is saved on
// its own.
type Settings struct {
	api      API
	session  *session.Provider
	snackbar *snackbar.Provider
	logger   zerolog.Logger

	mu     sync.Mutex
	errors forms.Errors
}

// NewSettings creates the settings panel
func NewSettings(api API, sess *session.Provider, snack *snackbar.Provider, logger zerolog.Logger) *Settings {
	return &Settings{
		api:      api,
		session:  sess,
		snackbar: snack,
		logger:   logger,
		errors:   forms.Errors{},
	}
}

// Errors returns a copy of the per-field errors
func (s *Settings) Errors() forms.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := forms.Errors{}
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

func (s *Settings) setError(field, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		delete(s.errors, field)
		return
	}
	s.errors[field] = msg
}

// fieldUpdate describes one single-field profile change
type fieldUpdate struct {
	field    string
	validate func(string) string
	call     func(context.Context, string) (*client.Envelope, error)
	apply    func(*session.Session, string)
}

func (s *Settings) modify(ctx context.Context, u fieldUpdate, value string) error {
	if msg := u.validate(value); msg != "" {
		s.setError(u.field, msg)
		return forms.Errors{u.field: msg}
	}

	resp, err := u.call(ctx, value)
	if err != nil {
		msg := client.Message(err, err.Error())
		s.logger.Error().Err(err).Str("field", u.field).Msg("Failed to update profile")
		s.setError(u.field, msg)
		return forms.Errors{u.field: msg}
	}

	s.setError(u.field, "")
	s.session.UpdateSession(func(sess *session.Session) { u.apply(sess, value) })
	s.snackbar.Show(resp.Msg, snackbar.SeveritySuccess)
	return nil
}

// ModifyName saves a new display name
func (s *Settings) ModifyName(ctx context.Context, name string) error {
	return s.modify(ctx, fieldUpdate{
		field:    forms.FieldName,
		validate: forms.ValidateName,
		call:     s.api.ModifyName,
		apply:    func(sess *session.Session, v string) { sess.Name = v },
	}, name)
}

// ModifyUniversity saves a new university
func (s *Settings) ModifyUniversity(ctx context.Context, university string) error {
	return s.modify(ctx, fieldUpdate{
		field:    forms.FieldUniversity,
		validate: forms.ValidateUniversity,
		call:     s.api.ModifyUniversity,
		apply:    func(sess *session.Session, v string) { sess.University = v },
	}, university)
}

// ModifyEmail requests an email change. The server sends a confirmation
// link; the session shows the new address right away.
func (s *Settings) ModifyEmail(ctx context.Context, email string) error {
	return s.modify(ctx, fieldUpdate{
		field:    forms.FieldEmail,
		validate: forms.ValidateEmail,
		call:     s.api.ModifyEmail,
		apply:    func(sess *session.Session, v string) { sess.Email = v },
	}, email)
}

// UpdatePassword changes the password and then logs out
func (s *Settings) UpdatePassword(ctx context.Context, password, repeatPassword string) error {
	if msg := forms.ValidatePassword(password); msg != "" {
		s.setError(forms.FieldPassword, msg)
		return forms.Errors{forms.FieldPassword: msg}
	}
	s.setError(forms.FieldPassword, "")

	if password != repeatPassword {
		s.setError(forms.FieldRepeatPassword, MsgPasswordsDiffer)
		return forms.Errors{forms.FieldRepeatPassword: MsgPasswordsDiffer}
	}
	s.setError(forms.FieldRepeatPassword, "")

	if _, err := s.api.UpdatePassword(ctx, password, repeatPassword); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		s.snackbar.Show(client.Message(err, err.Error()), snackbar.SeverityError)
		return err
	}

	s.snackbar.Show(MsgPasswordUpdated, snackbar.SeveritySuccess)
	if err := s.session.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Logout after password change failed")
	}
	return nil
}

// DeleteAccount removes the account. The session ends only if the server
// confirms.
func (s *Settings) DeleteAccount(ctx context.Context) error {
	resp, err := s.api.DeleteAccount(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete account")
		s.snackbar.Show(client.Message(err, err.Error()), snackbar.SeverityError)
		return err
	}

	s.session.SetLoggedIn(false)
	if resp.Msg != "" {
		s.snackbar.Show(resp.Msg, snackbar.SeveritySuccess)
	}
	return nil
}
