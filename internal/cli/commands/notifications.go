package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/decisionhub/decisionhub/internal/app"
	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// NewNotificationsCmd creates the notifications command group
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read and answer notifications",
	}

	cmd.AddCommand(newNotificationsListCmd())
	cmd.AddCommand(newNotificationsReadCmd())
	cmd.AddCommand(newNotificationsAnswerCmd(client.ActionAccepted))
	cmd.AddCommand(newNotificationsAnswerCmd(client.ActionDeclined))
	cmd.AddCommand(newNotificationsRemoveCmd())
	cmd.AddCommand(newNotificationsWatchCmd())

	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotificationsList(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")

	return cmd
}

func runNotificationsList(ctx context.Context, output string, opts ...Option) error {
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

	notifications := a.Session.Notifications()
	if done, err := encode(r.out, output, notifications); done {
		return err
	}

	if len(notifications) == 0 {
		fmt.Fprintln(r.out, "No notifications.")
		return nil
	}

	fmt.Fprintf(r.out, "%d notification(s), %d unread:\n\n", len(notifications), a.Navbar.Unread())
	printNotifications(r, notifications)
	return nil
}

func printNotifications(r *runner, notifications []client.Notification) {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHEADER\tMESSAGE\tRECEIVED\tSTATUS")
	fmt.Fprintln(w, "──\t──────\t───────\t────────\t──────")

	for _, n := range notifications {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.ID,
			n.Header,
			n.Message,
			n.CreatedAt.Local().Format("2006-01-02 15:04"),
			notificationStatus(n),
		)
	}

	w.Flush()
}

func notificationStatus(n client.Notification) string {
	switch {
	case n.ResponseStatus != "":
		return string(n.ResponseStatus)
	case n.RequiresAction:
		return "Awaiting answer"
	case !n.Read:
		return "Unread"
	default:
		return ""
	}
}

func newNotificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotificationsRead(cmd.Context())
		},
	}
}

func runNotificationsRead(ctx context.Context, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	unread := a.Navbar.Unread()
	err = a.Navbar.OpenDrawer(ctx)
	a.Navbar.CloseDrawer()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "✓ Marked %d notification(s) as read\n", unread)
	return nil
}

func newNotificationsAnswerCmd(action string) *cobra.Command {
	use, short := "accept", "Accept the invitation to an issue"
	if action == client.ActionDeclined {
		use, short = "decline", "Decline the invitation to an issue"
	}

	return &cobra.Command{
		Use:   use + " <issue-id-or-name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotificationsAnswer(cmd.Context(), args[0], action)
		},
	}
}

func runNotificationsAnswer(ctx context.Context, issue, action string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	issueID, err := findInvitation(a, issue)
	if err != nil {
		return err
	}

	return r.finish(a, a.Navbar.RespondInvitation(ctx, issueID, action))
}

// findInvitation matches issue against the id or name of the issues the
// user holds invitations for
func findInvitation(a *app.App, issue string) (string, error) {
	for _, n := range a.Session.Notifications() {
		if !n.RequiresAction || n.IssueID == "" {
			continue
		}
		if n.IssueID == issue || strings.EqualFold(n.IssueName, issue) {
			if n.ResponseStatus != "" {
				return "", fmt.Errorf("invitation to %s already answered: %s", n.IssueName, n.ResponseStatus)
			}
			return n.IssueID, nil
		}
	}
	return "", fmt.Errorf("no invitation found for issue '%s'", issue)
}

func newNotificationsRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <notification-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a notification",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotificationsRemove(cmd.Context(), args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runNotificationsRemove(ctx context.Context, id string, yes bool, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Navbar.AskRemove(id)
	if !yes {
		ok, err := r.confirm("Are you sure you want to remove this notification")
		if err != nil || !ok {
			a.Navbar.DismissRemove()
			if err == nil {
				fmt.Fprintln(r.out, "Removal cancelled")
			}
			return err
		}
	}

	if err := r.finish(a, a.Navbar.ConfirmRemove(ctx)); err != nil {
		return err
	}

	fmt.Fprintln(r.out, "✓ Notification removed")
	return nil
}

func newNotificationsWatchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runNotificationsWatch(ctx, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 30s", "Polling schedule (cron expression or @every <duration>)")

	return cmd
}

func runNotificationsWatch(ctx context.Context, schedule string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	seen := make(map[string]bool)
	for _, n := range a.Session.Notifications() {
		seen[n.ID] = true
	}

	poll := func() {
		if err := a.Navbar.Refresh(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				fmt.Fprintf(r.out, "! Refresh failed: %v\n", err)
			}
			return
		}

		for _, n := range a.Session.Notifications() {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			fmt.Fprintf(r.out, "New: [%s] %s\n", n.Header, n.Message)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, poll); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	fmt.Fprintf(r.out, "Watching notifications (%s), %d unread. Press Ctrl+C to stop.\n", schedule, a.Navbar.Unread())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
