package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewIssuesCmd creates the issues command
func NewIssuesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List the active issues you take part in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssues(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")

	return cmd
}

func runIssues(ctx context.Context, output string, opts ...Option) error {
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

	if err := a.Issues.FetchActive(ctx); err != nil {
		return err
	}

	active := a.Issues.Active()
	if done, err := encode(r.out, output, active); done {
		return err
	}

	if len(active) == 0 {
		fmt.Fprintln(r.out, "No active issues.")
		fmt.Fprintln(r.out, "\nAccept an invitation with: decisionhub notifications accept <issue>")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREATOR\tMODEL\tCONSENSUS\tDESCRIPTION")
	fmt.Fprintln(w, "────\t───────\t─────\t─────────\t───────────")

	for _, issue := range active {
		consensus := "no"
		if issue.IsConsensus {
			consensus = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			issue.Name,
			issue.Creator,
			issue.Model,
			consensus,
			issue.Description,
		)
	}

	return w.Flush()
}
