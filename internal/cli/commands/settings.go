package commands

import (
	"context"
	"fmt"

	"github.com/decisionhub/decisionhub/internal/navbar"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command group
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change profile, password or delete the account",
	}

	for _, field := range []string{"name", "university", "email"} {
		cmd.AddCommand(newSettingsFieldCmd(field))
	}
	cmd.AddCommand(newSettingsPasswordCmd())
	cmd.AddCommand(newSettingsDeleteCmd())

	return cmd
}

func newSettingsFieldCmd(field string) *cobra.Command {
	short := fmt.Sprintf("Change your %s", field)
	if field == "email" {
		short = "Change your email (confirmed by a link sent to the new address)"
	}

	return &cobra.Command{
		Use:   field + " <value>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsField(cmd.Context(), field, args[0])
		},
	}
}

func runSettingsField(ctx context.Context, field, value string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Navbar.SelectOption(ctx, navbar.PanelSettings); err != nil {
		return err
	}
	defer a.Navbar.ClosePanel()

	switch field {
	case "name":
		err = a.Settings.ModifyName(ctx, value)
	case "university":
		err = a.Settings.ModifyUniversity(ctx, value)
	case "email":
		err = a.Settings.ModifyEmail(ctx, value)
	default:
		return fmt.Errorf("unknown setting %q", field)
	}

	return r.finish(a, err)
}

func newSettingsPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password (logs you out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("New password")
			if err != nil {
				return err
			}
			repeat, err := readPassword("Repeat new password")
			if err != nil {
				return err
			}
			return runSettingsPassword(cmd.Context(), password, repeat)
		},
	}
}

func runSettingsPassword(ctx context.Context, password, repeat string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := r.finish(a, a.Settings.UpdatePassword(ctx, password, repeat)); err != nil {
		return err
	}

	fmt.Fprintln(r.out, "Log in again with 'decisionhub login'")
	return nil
}

func newSettingsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete your account and all your data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsDelete(cmd.Context(), yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runSettingsDelete(ctx context.Context, yes bool, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !yes {
		ok, err := r.confirm(fmt.Sprintf("Delete the account %s permanently", a.Session.Session().Email))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(r.out, "Account deletion cancelled")
			return nil
		}
	}

	return r.finish(a, a.Settings.DeleteAccount(ctx))
}
