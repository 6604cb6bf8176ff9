package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfirmCmd creates the confirm command
func NewConfirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <link>",
		Short: "Open an account or email confirmation link",
		Long: `Open an account or email confirmation link.

The link comes from the signup or email change mail. After an email change
the current session ends and you need to log in with the new address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfirm(cmd.Context(), args[0])
		},
	}

	return cmd
}

func runConfirm(ctx context.Context, link string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	c, err := r.client()
	if err != nil {
		return err
	}
	if err := c.FollowLink(ctx, link); err != nil {
		return fmt.Errorf("failed to open confirmation link: %w", err)
	}

	// Starting the app applies the email change flag to the session
	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.ConsumeStatusFlags()
	return r.finish(a, nil)
}
