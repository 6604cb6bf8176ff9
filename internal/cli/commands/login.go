package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/routes"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to decisionhub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set DECISIONHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set DECISIONHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("DECISIONHUB_EMAIL")
	}
	if password == "" {
		password = os.Getenv("DECISIONHUB_PASSWORD")
	}

	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.ConsumeStatusFlags()
	r.flush(a)

	// Same guard as the web login page
	if d := a.Resolve(routes.PathLogin); d.Kind == routes.Redirect {
		fmt.Fprintf(r.out, "Already logged in as %s (%s)\n", a.Session.Session().Name, a.Session.Session().Email)
		return r.finish(a, nil)
	}

	if email == "" {
		if email, err = promptValue("Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = readPassword("Password"); err != nil {
			return err
		}
	}

	a.Login.Set(forms.FieldEmail, email)
	a.Login.Set(forms.FieldPassword, password)

	fmt.Fprintf(r.out, "Logging in to %s...\n", r.server.Label())
	if err := a.Login.Submit(ctx); err != nil {
		return r.finish(a, fmt.Errorf("login failed: %w", err))
	}

	if err := r.finish(a, nil); err != nil {
		return err
	}

	sess := a.Session.Session()
	fmt.Fprintf(r.out, "  User: %s (%s)\n", sess.Name, sess.Email)
	if sess.Admin() {
		fmt.Fprintln(r.out, "  Role: Admin")
	}
	if unread := a.Navbar.Unread(); unread > 0 {
		fmt.Fprintf(r.out, "  %d unread notification(s), see 'decisionhub notifications list'\n", unread)
	}

	return nil
}
