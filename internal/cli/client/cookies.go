package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// expiryJar is a cookie jar that remembers when each cookie expires, so the
// expiry survives persistence. cookiejar.Jar returns only names and values.
type expiryJar struct {
	*cookiejar.Jar

	mu      sync.Mutex
	expires map[string]time.Time
}

func newExpiryJar() (*expiryJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &expiryJar{Jar: jar, expires: make(map[string]time.Time)}, nil
}

// SetCookies records the expiry of every cookie before storing it. MaxAge
// wins over Expires, as in the jar itself.
func (j *expiryJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	now := time.Now()

	j.mu.Lock()
	for _, c := range cookies {
		switch {
		case c.MaxAge < 0:
			delete(j.expires, c.Name)
		case c.MaxAge > 0:
			j.expires[c.Name] = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero() && c.Expires.After(now):
			j.expires[c.Name] = c.Expires
		default:
			delete(j.expires, c.Name)
		}
	}
	j.mu.Unlock()

	j.Jar.SetCookies(u, cookies)
}

// Cookies returns the cookies for u with Expires filled in. Session cookies
// keep a zero Expires.
func (j *expiryJar) Cookies(u *url.URL) []*http.Cookie {
	cookies := j.Jar.Cookies(u)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		c.Expires = j.expires[c.Name]
	}
	return cookies
}
