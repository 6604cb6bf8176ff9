package auth

import "net/http"

// CookieStore defines the interface for session cookie storage.
// This allows us to mock the keyring in tests
type CookieStore interface {
	LoadCookies(host string) ([]*http.Cookie, error)
	SaveCookies(host string, cookies []*http.Cookie) error
	DeleteCookies(host string) error
}

// defaultCookieStore implements CookieStore using the OS keyring
type defaultCookieStore struct{}

var Default CookieStore = &defaultCookieStore{}

func (d *defaultCookieStore) LoadCookies(host string) ([]*http.Cookie, error) {
	return LoadCookies(host)
}

func (d *defaultCookieStore) SaveCookies(host string, cookies []*http.Cookie) error {
	return SaveCookies(host, cookies)
}

func (d *defaultCookieStore) DeleteCookies(host string) error {
	return DeleteCookies(host)
}
