// Package userconfig keeps the per-user server selection made with
// 'decisionhub use': the API the CLI talks to and the web app served next
// to it.
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	configDirName  = "decisionhub"
	configFileName = "config.json"
)

// Selection is the saved API/app URL pair
type Selection struct {
	APIURL     string    `json:"selected_api_url"`
	AppURL     string    `json:"app_url,omitempty"`
	SelectedAt time.Time `json:"selected_at,omitzero"`
}

// Empty reports whether no server has been selected
func (s Selection) Empty() bool {
	return s.APIURL == ""
}

// GetConfigPath returns ~/.config/decisionhub/config.json
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load returns the saved selection. No file means no selection.
func Load() (Selection, error) {
	path, err := GetConfigPath()
	if err != nil {
		return Selection{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Selection{}, nil
	}
	if err != nil {
		return Selection{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return sel, nil
}

// Save writes sel through a temporary file so a crash never leaves half a
// selection behind. An empty selection removes the file.
func Save(sel Selection) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if sel.Empty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to clear server selection: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode server selection: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), configFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write server selection: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write server selection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write server selection: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write server selection: %w", err)
	}
	return nil
}

// SetSelectedServer records the API the CLI talks to by default and the web
// app that belongs to it. An empty apiURL clears the selection.
func SetSelectedServer(apiURL, appURL string) error {
	return Save(Selection{APIURL: apiURL, AppURL: appURL, SelectedAt: time.Now().UTC()})
}

// GetSelectedServer returns the selected API and app URLs, or empty strings
// when nothing is selected
func GetSelectedServer() (apiURL, appURL string, err error) {
	sel, err := Load()
	if err != nil {
		return "", "", err
	}
	return sel.APIURL, sel.AppURL, nil
}
