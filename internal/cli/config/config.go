package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "decisionhub.json"

// Defaults used when nothing else selects an endpoint
const (
	DefaultAPIURL = "http://localhost:4000"
	DefaultAppURL = "http://localhost:5173"
)

// Server represents a decisionhub deployment: the REST API and the web app
// served next to it
type Server struct {
	Alias  string `json:"alias"`
	APIURL string `json:"apiUrl"`
	AppURL string `json:"appUrl,omitempty"`
}

// Validate checks that APIURL is an absolute http(s) URL
func (s *Server) Validate() error {
	if s.APIURL == "" {
		return fmt.Errorf("server %q has an empty apiUrl", s.Alias)
	}
	u, err := url.Parse(s.APIURL)
	if err != nil {
		return fmt.Errorf("server %q has an invalid apiUrl: %w", s.Alias, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server %q apiUrl must be an absolute http or https URL", s.Alias)
	}
	return nil
}

// Label is the human readable name of the server
func (s *Server) Label() string {
	if s.Alias == "" {
		return s.APIURL
	}
	return fmt.Sprintf("%s (%s)", s.Alias, s.APIURL)
}

// Config represents the project configuration file
type Config struct {
	Servers []Server `json:"servers"`
}

// DefaultConfig returns a configuration pointing at a local development API
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{
				Alias:  "local",
				APIURL: DefaultAPIURL,
				AppURL: DefaultAppURL,
			},
		},
	}
}

// FindConfigFile searches for decisionhub.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find decisionhub.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].APIURL = strings.TrimRight(cfg.Servers[i].APIURL, "/")
		cfg.Servers[i].AppURL = strings.TrimRight(cfg.Servers[i].AppURL, "/")
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for _, server := range c.Servers {
		if server.Alias == alias {
			return &server, nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns the server whose API lives at apiURL
func (c *Config) GetServerByURL(apiURL string) (*Server, error) {
	apiURL = strings.TrimRight(apiURL, "/")
	for _, server := range c.Servers {
		if server.APIURL == apiURL {
			return &server, nil
		}
	}
	return nil, fmt.Errorf("server with API URL '%s' not found", apiURL)
}
