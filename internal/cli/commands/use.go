package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/decisionhub/decisionhub/internal/cli/config"
	"github.com/decisionhub/decisionhub/internal/cli/serverselect"
	"github.com/decisionhub/decisionhub/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewUseCmd creates the use command
func NewUseCmd() *cobra.Command {
	var appURL string

	cmd := &cobra.Command{
		Use:   "use [api-url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt lists the servers in
decisionhub.json.

Examples:
  $ decisionhub use                              # Interactive selection
  $ decisionhub use https://api.decisionhub.dev  # Select by API URL
  $ decisionhub use staging                      # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runUse(cmd.OutOrStdout(), urlOrAlias, appURL)
		},
	}

	cmd.Flags().StringVar(&appURL, "app-url", "", "Web app URL that belongs to the API")

	return cmd
}

func runUse(out io.Writer, urlOrAlias, appURL string) error {
	// The project file is optional when a URL is given
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		if urlOrAlias == "" {
			return fmt.Errorf("failed to load config: %w\nRun 'decisionhub init <api-url>' or pass a URL", err)
		}
		cfg = &config.Config{}
	}

	var server *config.Server

	switch {
	case urlOrAlias == "":
		// Show interactive selection
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	case strings.Contains(urlOrAlias, "://"):
		server, err = cfg.GetServerByURL(urlOrAlias)
		if err != nil {
			server = &config.Server{APIURL: strings.TrimRight(urlOrAlias, "/")}
		}
	default:
		server, err = serverselect.GetServerByURLOrAlias(cfg, urlOrAlias)
		if err != nil {
			return err
		}
	}

	if appURL != "" {
		server.AppURL = strings.TrimRight(appURL, "/")
	}
	if err := server.Validate(); err != nil {
		return err
	}

	// Save the selected server
	if err := userconfig.SetSelectedServer(server.APIURL, server.AppURL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(out, "Selected server: %s\n", server.Label())
	return nil
}
