package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/decisionhub/decisionhub/internal/routes"
	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var tab string

	cmd := &cobra.Command{
		Use:   "dash [path]",
		Short: "Open the web dashboard in browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := routes.PathRoot
			if len(args) > 0 {
				path = args[0]
			}
			return runDash(cmd.Context(), path, tab)
		},
	}

	cmd.Flags().StringVar(&tab, "tab", "", "Open a dashboard tab by label, e.g. \"Finished issues\"")

	return cmd
}

func runDash(ctx context.Context, path, tab string, opts ...Option) error {
	r, err := newRunner(opts...)
	if err != nil {
		return err
	}

	a, err := r.startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if tab != "" {
		url, ok := a.Navbar.SelectTab(tab)
		if !ok {
			if a.Snackbar.Current().Open {
				return r.finish(a, nil)
			}
			return fmt.Errorf("unknown tab '%s'", tab)
		}
		path = url
	}

	_, hops, err := follow(a, path)
	if err != nil {
		return err
	}
	target := hops[len(hops)-1].from

	dashboardURL := r.server.AppURL + target
	fmt.Fprintf(r.out, "Opening %s\n", dashboardURL)

	if err := openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
var openBrowser = func(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
