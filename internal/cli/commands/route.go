package commands

import (
	"context"
	"fmt"

	"github.com/decisionhub/decisionhub/internal/app"
	"github.com/decisionhub/decisionhub/internal/routes"
	"github.com/spf13/cobra"
)

// maxRedirects bounds the guard chain followed by follow
const maxRedirects = 5

// NewRouteCmd creates the route command
func NewRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show what a web app path shows for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cmd.Context(), args[0])
		},
	}
}

func runRoute(ctx context.Context, path string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	final, hops, err := follow(a, path)
	for _, hop := range hops {
		fmt.Fprintf(r.out, "%s -> %s\n", hop.from, hop.decision)
	}
	if err != nil {
		return err
	}

	if final.Kind == routes.Render && a.Session.IsLoggedIn() {
		tabs := a.Navbar.Pages()
		fmt.Fprintf(r.out, "Tab: %s\n", tabs[a.Navbar.ActiveTab(hops[len(hops)-1].from)].Label)
	}
	return nil
}

type hop struct {
	from     string
	decision routes.Decision
}

// follow resolves path and the redirects it leads to until a page renders
func follow(a *app.App, path string) (routes.Decision, []hop, error) {
	var hops []hop
	for i := 0; i <= maxRedirects; i++ {
		d := a.Resolve(path)
		hops = append(hops, hop{from: path, decision: d})
		if d.Kind != routes.Redirect {
			return d, hops, nil
		}
		path = d.Target
	}
	return routes.Decision{}, hops, fmt.Errorf("too many redirects resolving %s", hops[0].from)
}
