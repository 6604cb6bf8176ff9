package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")

	return cmd
}

func runWhoami(ctx context.Context, output string, opts ...Option) error {
	if err := validateOutput(output); err != nil {
		return err
	}

	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.Session.Session()
	if done, err := encode(r.out, output, sess); done {
		return err
	}

	role := "Expert"
	if sess.Admin() {
		role = "Admin"
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", sess.Name)
	fmt.Fprintf(w, "University:\t%s\n", sess.University)
	fmt.Fprintf(w, "Email:\t%s\n", sess.Email)
	fmt.Fprintf(w, "Member since:\t%s\n", sess.AccountCreation)
	fmt.Fprintf(w, "Role:\t%s\n", role)
	fmt.Fprintf(w, "Unread:\t%d\n", a.Navbar.Unread())
	fmt.Fprintf(w, "Server:\t%s\n", r.server.Label())
	return w.Flush()
}
