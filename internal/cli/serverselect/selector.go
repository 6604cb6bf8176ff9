package serverselect

import (
	"fmt"
	"os"
	"strings"

	"github.com/decisionhub/decisionhub/internal/cli/config"
	"github.com/decisionhub/decisionhub/internal/cli/userconfig"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Environment variables read by ResolveServer
const (
	EnvAPIURL = "DECISIONHUB_API_URL"
	EnvAppURL = "DECISIONHUB_APP_URL"
)

// interactive reports whether a selection prompt can be shown
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Flags are the command line overrides
type Flags struct {
	APIURL string
	Alias  string
}

// ResolveServer determines which API to talk to based on the following priority:
// 1. The --api-url flag
// 2. The DECISIONHUB_API_URL environment variable
// 3. The --server flag, looked up in decisionhub.json
// 4. The server selected with 'decisionhub use'
// 5. If only one server in project config, use that
// 6. Otherwise, prompt user to select a server interactively
// 7. The local development API
func ResolveServer(flags Flags) (*config.Server, error) {
	server, err := resolve(flags)
	if err != nil {
		return nil, err
	}

	server.APIURL = strings.TrimRight(server.APIURL, "/")
	if server.AppURL == "" {
		server.AppURL = os.Getenv(EnvAppURL)
	}
	if server.AppURL == "" {
		server.AppURL = config.DefaultAppURL
	}
	server.AppURL = strings.TrimRight(server.AppURL, "/")

	if err := server.Validate(); err != nil {
		return nil, err
	}
	return server, nil
}

func resolve(flags Flags) (*config.Server, error) {
	// Priority 1 and 2: explicit URL
	if flags.APIURL != "" {
		return &config.Server{Alias: "flag", APIURL: flags.APIURL}, nil
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		return &config.Server{Alias: "env", APIURL: env}, nil
	}

	// The project file is optional
	projectConfig, err := config.LoadFromCurrentDir()
	if err != nil {
		projectConfig = &config.Config{}
	}

	// Priority 3: Use server alias if provided
	if flags.Alias != "" {
		return projectConfig.GetServerByAlias(flags.Alias)
	}

	// Priority 4: Use selected server from user config
	selectedAPI, selectedApp, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if selectedAPI != "" {
		if server, err := projectConfig.GetServerByURL(selectedAPI); err == nil {
			return server, nil
		}
		return &config.Server{Alias: "selected", APIURL: selectedAPI, AppURL: selectedApp}, nil
	}

	switch {
	case len(projectConfig.Servers) == 1:
		// Priority 5: If only one server, use it automatically
		return &projectConfig.Servers[0], nil
	case len(projectConfig.Servers) > 1 && interactive():
		// Priority 6: Prompt user to select a server
		server, err := PromptServerSelection(projectConfig)
		if err != nil {
			return nil, err
		}
		if err := userconfig.SetSelectedServer(server.APIURL, server.AppURL); err != nil {
			// Don't fail if we can't save, just continue
			fmt.Fprintf(os.Stderr, "Warning: failed to save selected server: %v\n", err)
		}
		return server, nil
	case len(projectConfig.Servers) > 1:
		return nil, fmt.Errorf("%d servers configured in %s; pick one with --server or 'decisionhub use'",
			len(projectConfig.Servers), config.ConfigFileName)
	}

	// Priority 7: local development API
	return &config.Server{Alias: "local", APIURL: config.DefaultAPIURL}, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	// Create display labels for each server
	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  server.Label(),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// GetServerByURLOrAlias finds a server by API URL or alias
func GetServerByURLOrAlias(cfg *config.Config, urlOrAlias string) (*config.Server, error) {
	if server, err := cfg.GetServerByURL(urlOrAlias); err == nil {
		return server, nil
	}
	if server, err := cfg.GetServerByAlias(urlOrAlias); err == nil {
		return server, nil
	}
	return nil, fmt.Errorf("server with API URL or alias '%s' not found", urlOrAlias)
}
