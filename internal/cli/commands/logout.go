package commands

import (
	"context"
	"fmt"

	"github.com/decisionhub/decisionhub/internal/navbar"
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runLogout(ctx context.Context, yes bool, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Session.IsLoggedIn() {
		fmt.Fprintln(r.out, "Not logged in")
		return nil
	}

	if err := a.Navbar.SelectOption(ctx, navbar.PanelLogout); err != nil {
		return err
	}

	if !yes {
		ok, err := r.confirm("Are you sure you want to log out")
		if err != nil {
			a.Navbar.CancelLogout()
			return err
		}
		if !ok {
			a.Navbar.CancelLogout()
			fmt.Fprintln(r.out, "Logout cancelled")
			return nil
		}
	}

	// The local session ends even if the server call fails
	if err := a.Navbar.ConfirmLogout(ctx); err != nil {
		fmt.Fprintf(r.out, "! Server logout failed: %v\n", err)
	}

	fmt.Fprintln(r.out, "✓ Logged out")
	return nil
}
