package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	service = "decisionhub-cli"
)

// storedCookie is the keyring representation of one session cookie
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// getKeyringKey returns a unique key for storing session cookies per API host
func getKeyringKey(host string) string {
	return fmt.Sprintf("cookies-%s", host)
}

// SaveCookies persists the session cookies in the OS keychain/credential manager.
// An empty set removes the entry.
func SaveCookies(host string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return DeleteCookies(host)
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value, Expires: c.Expires})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := keyring.Set(service, getKeyringKey(host), string(data)); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}

// LoadCookies retrieves the session cookies for host. A missing entry is not
// an error: the user simply has no session yet.
func LoadCookies(host string) ([]*http.Cookie, error) {
	data, err := keyring.Get(service, getKeyringKey(host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Expires: s.Expires})
	}
	return cookies, nil
}

// DeleteCookies removes the session cookies for host
func DeleteCookies(host string) error {
	if err := keyring.Delete(service, getKeyringKey(host)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}
