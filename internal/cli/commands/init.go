package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/decisionhub/decisionhub/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias, appURL string

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add a decisionhub server to ./decisionhub.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currentDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInit(cmd.OutOrStdout(), currentDir, config.Server{
				Alias:  alias,
				APIURL: args[0],
				AppURL: appURL,
			})
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Server alias (default: production, then server-N)")
	cmd.Flags().StringVar(&appURL, "app-url", "", "Web app URL served next to the API")

	return cmd
}

func runInit(out io.Writer, dir string, server config.Server) error {
	server.APIURL = strings.TrimRight(server.APIURL, "/")
	server.AppURL = strings.TrimRight(server.AppURL, "/")
	if err := server.Validate(); err != nil {
		return err
	}

	configPath := filepath.Join(dir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		// Load existing config
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetServerByURL(server.APIURL); err == nil {
		fmt.Fprintf(out, "Server %s already exists in %s\n", server.APIURL, config.ConfigFileName)
		return nil
	}

	if server.Alias == "" {
		if len(cfg.Servers) == 0 {
			server.Alias = "production"
		} else {
			server.Alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}
	}
	if _, err := cfg.GetServerByAlias(server.Alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in %s", server.Alias, config.ConfigFileName)
	}

	cfg.Servers = append(cfg.Servers, server)

	// Save to file
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, server.APIURL, server.Alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", server.APIURL, server.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'decisionhub signup' or 'decisionhub login'")
	fmt.Fprintln(out, "  2. Run 'decisionhub notifications list' to see your invitations")

	return nil
}
