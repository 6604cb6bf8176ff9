// Package app owns the providers of one client session. Every command builds
// an App, starts it, runs against it and closes it.
package app

import (
	"context"
	"fmt"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/issues"
	"github.com/decisionhub/decisionhub/internal/navbar"
	"github.com/decisionhub/decisionhub/internal/routes"
	"github.com/decisionhub/decisionhub/internal/screens"
	"github.com/decisionhub/decisionhub/internal/session"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
)

// API is everything the providers and screens call on the server
type API interface {
	session.API
	issues.API
	navbar.API
	screens.API
}

var _ API = (*client.Client)(nil)

// App is the root application object
type App struct {
	API      API
	Session  *session.Provider
	Snackbar *snackbar.Provider
	Issues   *issues.Store
	Navbar   *navbar.Navbar
	Login    *screens.LoginForm
	Signup   *screens.SignupForm
	Settings *screens.Settings

	logger zerolog.Logger
}

// New wires the providers around api
func New(api API, logger zerolog.Logger) *App {
	snack := snackbar.New(logger.With().Str("component", "snackbar").Logger())
	sess := session.New(api, logger.With().Str("component", "session").Logger())
	store := issues.NewStore(api, logger.With().Str("component", "issues").Logger())
	nav := navbar.New(api, sess, store, snack, logger.With().Str("component", "navbar").Logger())

	screenLogger := logger.With().Str("component", "screens").Logger()
	return &App{
		API:      api,
		Session:  sess,
		Snackbar: snack,
		Issues:   store,
		Navbar:   nav,
		Login:    screens.NewLoginForm(api, sess, snack, screenLogger),
		Signup:   screens.NewSignupForm(api, snack, screenLogger),
		Settings: screens.NewSettings(api, sess, snack, screenLogger),
		logger:   logger,
	}
}

// Start mounts the session provider and waits until it leaves the loading
// state.
func (a *App) Start(ctx context.Context) error {
	a.Session.Mount(ctx)

	select {
	case <-a.Session.Ready():
		a.logger.Debug().Bool("logged_in", a.Session.IsLoggedIn()).Msg("Session ready")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session initialization aborted: %w", ctx.Err())
	}
}

// ConsumeStatusFlags toasts pending confirmation results
func (a *App) ConsumeStatusFlags() {
	screens.ConsumeStatusFlags(a.API, a.Snackbar)
}

// AuthState is the guard input for the current session
func (a *App) AuthState() routes.AuthState {
	state := a.Session.State()
	return routes.AuthState{
		Loading:  state.Loading,
		LoggedIn: state.LoggedIn,
		Admin:    state.Session.Admin(),
	}
}

// Resolve applies the route guards to path
func (a *App) Resolve(path string) routes.Decision {
	return routes.Resolve(path, a.AuthState())
}

// Close cancels in-flight work
func (a *App) Close() {
	a.Session.Unmount()
}
