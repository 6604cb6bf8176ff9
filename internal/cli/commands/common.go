package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/decisionhub/decisionhub/internal/app"
	"github.com/decisionhub/decisionhub/internal/cli/auth"
	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/cli/config"
	"github.com/decisionhub/decisionhub/internal/cli/serverselect"
	"github.com/decisionhub/decisionhub/internal/logger"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNotLoggedIn is returned by commands that need a session
var ErrNotLoggedIn = errors.New("not logged in, run 'decisionhub login' first")

// Global flags shared by every command
var (
	apiURLFlag string
	serverFlag string
)

// BindGlobalFlags registers the endpoint flags on the root command
func BindGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "API base URL (or set "+serverselect.EnvAPIURL+")")
	cmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server alias from "+config.ConfigFileName)
}

// runner is what a command runs against. Options replace parts of it in tests.
type runner struct {
	out     io.Writer
	server  *config.Server
	store   client.CookieStore
	confirm func(label string) (bool, error)
	logger  zerolog.Logger
}

// Option configures a runner
type Option func(*runner)

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(r *runner) { r.out = w }
}

// WithServer skips endpoint resolution
func WithServer(server *config.Server) Option {
	return func(r *runner) { r.server = server }
}

// WithCookieStore replaces the keychain cookie store
func WithCookieStore(store client.CookieStore) Option {
	return func(r *runner) { r.store = store }
}

// WithConfirm replaces the interactive yes/no prompt
func WithConfirm(confirm func(label string) (bool, error)) Option {
	return func(r *runner) { r.confirm = confirm }
}

func newRunner(opts ...Option) (*runner, error) {
	r := &runner{
		out:     os.Stdout,
		store:   auth.Default,
		confirm: promptConfirm,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.server == nil {
		server, err := serverselect.ResolveServer(serverselect.Flags{APIURL: apiURLFlag, Alias: serverFlag})
		if err != nil {
			return nil, err
		}
		r.server = server
	}

	return r, nil
}

func (r *runner) client() (*client.Client, error) {
	return client.New(r.server.APIURL,
		client.WithCookieStore(r.store),
		client.WithLogger(r.logger.With().Str("component", "client").Logger()),
	)
}

// startApp builds the root application object and waits for the session
// to resolve. The caller closes it.
func (r *runner) startApp(ctx context.Context) (*app.App, error) {
	c, err := r.client()
	if err != nil {
		return nil, err
	}

	a := app.New(c, r.logger)
	if err := a.Start(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// startSession is startApp for commands that need a logged in user
func (r *runner) startSession(ctx context.Context) (*app.App, error) {
	a, err := r.startApp(ctx)
	if err != nil {
		return nil, err
	}
	if !a.Session.IsLoggedIn() {
		a.Close()
		return nil, ErrNotLoggedIn
	}
	return a, nil
}

// finish prints the toast left by an operation. An error toast becomes the
// command error; otherwise err is returned.
func (r *runner) finish(a *app.App, err error) error {
	msg := a.Snackbar.Current()
	if msg.Open && msg.Text != "" {
		if msg.Severity == snackbar.SeverityError {
			return errors.New(msg.Text)
		}
		fmt.Fprintf(r.out, "%s %s\n", toastSymbol(msg.Severity), msg.Text)
	}
	return err
}

// flush prints and dismisses the current toast whatever its severity
func (r *runner) flush(a *app.App) {
	msg := a.Snackbar.Current()
	if msg.Open && msg.Text != "" {
		fmt.Fprintf(r.out, "%s %s\n", toastSymbol(msg.Severity), msg.Text)
		a.Snackbar.Close("")
	}
}

func toastSymbol(severity snackbar.Severity) string {
	switch severity {
	case snackbar.SeveritySuccess:
		return "✓"
	case snackbar.SeverityWarning:
		return "!"
	case snackbar.SeverityError:
		return "✗"
	default:
		return "i"
	}
}

// promptConfirm asks a yes/no question on the terminal
func promptConfirm(label string) (bool, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false, fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// promptValue asks for a visible value on the terminal
func promptValue(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode", label)
	}

	prompt := promptui.Prompt{Label: label}
	return prompt.Run()
}

// readPassword reads a password without echo
func readPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode", label)
	}

	fmt.Printf("%s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
