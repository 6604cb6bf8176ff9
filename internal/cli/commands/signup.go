package commands

import (
	"context"
	"fmt"

	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/routes"
	"github.com/spf13/cobra"
)

// NewSignupCmd creates the signup command
func NewSignupCmd() *cobra.Command {
	var values forms.SignupValues

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a decisionhub account",
		Long: `Create a decisionhub account.

The server mails a confirmation link. Open it with 'decisionhub confirm <link>'
and log in afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd.Context(), values)
		},
	}

	cmd.Flags().StringVar(&values.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&values.University, "university", "", "University")
	cmd.Flags().StringVar(&values.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&values.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&values.RepeatPassword, "repeat-password", "", "Password again (will prompt if not provided)")

	return cmd
}

func runSignup(ctx context.Context, values forms.SignupValues, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if d := a.Resolve(routes.PathSignup); d.Kind == routes.Redirect {
		return fmt.Errorf("already logged in as %s, log out first", a.Session.Session().Email)
	}

	prompts := []struct {
		value  *string
		label  string
		secret bool
	}{
		{&values.Name, "Name", false},
		{&values.University, "University", false},
		{&values.Email, "Email", false},
		{&values.Password, "Password", true},
		{&values.RepeatPassword, "Repeat password", true},
	}
	for _, p := range prompts {
		if *p.value != "" {
			continue
		}
		read := promptValue
		if p.secret {
			read = readPassword
		}
		if *p.value, err = read(p.label); err != nil {
			return err
		}
	}

	for field, value := range values.Values() {
		a.Signup.Set(field, value)
	}

	if err := a.Signup.Submit(ctx); err != nil {
		return r.finish(a, fmt.Errorf("signup failed: %w", err))
	}
	return r.finish(a, nil)
}
