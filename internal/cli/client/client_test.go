package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCookieStore is an in-memory CookieStore for testing
type memoryCookieStore struct {
	mu      sync.Mutex
	cookies map[string][]*http.Cookie
}

func newMemoryCookieStore() *memoryCookieStore {
	return &memoryCookieStore{cookies: make(map[string][]*http.Cookie)}
}

func (m *memoryCookieStore) LoadCookies(host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookies[host], nil
}

func (m *memoryCookieStore) SaveCookies(host string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[host] = cookies
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// fakeAPI serves the refresh/login contract with a fixed session cookie
func fakeAPI(t *testing.T, refreshes *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "abc123" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": false,
				"errors":  map[string]string{"password": "Incorrect password"},
			})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: "refresh-1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "msg": "Login successful", "token": "t0"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(refreshes, 1)
		if _, err := r.Cookie(RefreshCookie); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "msg": "No refresh token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": "access-token", "expiresIn": 900})
	})
	mux.HandleFunc("/auth/protected", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "msg": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "name": "Ana", "university": "UJA", "email": "a@b.com", "accountCreation": "2024-01-01",
		})
	})
	mux.HandleFunc("/issues/getNotifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"notifications": []map[string]interface{}{
				{"_id": "n1", "header": "Invitation", "message": "Join", "read": false, "requiresAction": true, "issueId": "i1", "responseStatus": false},
				{"_id": "n2", "header": "Issue", "message": "Done", "read": true, "requiresAction": false, "responseStatus": "Invitation accepted"},
			},
		})
	})
	mux.HandleFunc("/auth/confirmEmailChange/tok", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: EmailChangeStatusCookie, Value: "verified", Path: "/", MaxAge: 30})
		http.Redirect(w, r, "http://app.invalid/", http.StatusFound)
	})
	mux.HandleFunc("/auth/flags", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: AccountStatusCookie, Value: "verified", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	return httptest.NewServer(mux)
}

func TestLoginStoresSessionCookie(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	store := newMemoryCookieStore()
	c, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)

	resp, err := c.Login(context.Background(), "a@b.com", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Msg)
	assert.True(t, c.HasSessionCookie())

	// A fresh client over the same store resumes the session
	c2, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)
	profile, err := c2.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)
}

func TestLoginFieldErrors(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.com", "wrong1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, map[string]string{"password": "Incorrect password"}, apiErr.Errors)
	assert.False(t, c.HasSessionCookie())
}

func TestProtectedCallWithoutSession(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoToken))
}

func TestEveryProtectedCallRefreshes(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "a@b.com", "abc123")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Profile(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&refreshes))
}

func TestNotificationsDecodeResponseStatus(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "a@b.com", "abc123")
	require.NoError(t, err)

	notifications, err := c.Notifications(context.Background())
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, ResponseStatus(""), notifications[0].ResponseStatus)
	assert.Equal(t, "i1", notifications[0].IssueID)
	assert.Equal(t, ResponseStatus("Invitation accepted"), notifications[1].ResponseStatus)
}

func TestTakeFlagIsOneShot(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	store := newMemoryCookieStore()
	c, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/auth/flags", "", nil, &env))

	value, ok := c.PeekFlag(AccountStatusCookie)
	require.True(t, ok)
	assert.Equal(t, "verified", value)

	value, ok = c.TakeFlag(AccountStatusCookie)
	require.True(t, ok)
	assert.Equal(t, "verified", value)

	_, ok = c.TakeFlag(AccountStatusCookie)
	assert.False(t, ok)

	// The deletion is persisted too
	c2, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)
	_, ok = c2.PeekFlag(AccountStatusCookie)
	assert.False(t, ok)
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Logout(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Msg)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)

	_, err = New("://nope")
	assert.Error(t, err)
}

func TestResponseStatusMarshal(t *testing.T) {
	data, err := json.Marshal(Notification{ID: "n1"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"responseStatus":false`)
}

func TestFollowLinkKeepsStatusCookie(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	store := newMemoryCookieStore()
	c, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)

	require.NoError(t, c.FollowLink(context.Background(), srv.URL+"/auth/confirmEmailChange/tok"))

	value, ok := c.PeekFlag(EmailChangeStatusCookie)
	require.True(t, ok)
	assert.Equal(t, "verified", value)

	// Persisted for the next invocation
	c2, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)
	_, ok = c2.PeekFlag(EmailChangeStatusCookie)
	assert.True(t, ok)
}

func TestFollowLinkRejectsForeignHost(t *testing.T) {
	c, err := New("http://localhost:4000")
	require.NoError(t, err)

	err = c.FollowLink(context.Background(), "http://evil.example/auth/accountConfirm/x")
	assert.Error(t, err)
}

func TestPersistedCookiesCarryExpiry(t *testing.T) {
	var refreshes int32
	srv := fakeAPI(t, &refreshes)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	store := newMemoryCookieStore()
	c, err := New(srv.URL, WithCookieStore(store))
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.com", "abc123")
	require.NoError(t, err)
	require.NoError(t, c.FollowLink(context.Background(), srv.URL+"/auth/confirmEmailChange/tok"))

	saved, err := store.LoadCookies(u.Host)
	require.NoError(t, err)

	byName := make(map[string]*http.Cookie)
	for _, cookie := range saved {
		byName[cookie.Name] = cookie
	}
	require.Contains(t, byName, RefreshCookie)
	require.Contains(t, byName, EmailChangeStatusCookie)

	// The refresh cookie here is a session cookie; the flag lives 30 seconds
	assert.True(t, byName[RefreshCookie].Expires.IsZero())
	flagExpiry := byName[EmailChangeStatusCookie].Expires
	assert.WithinDuration(t, time.Now().Add(30*time.Second), flagExpiry, 5*time.Second)
}

func TestExpiredStoredCookieIsNotRestored(t *testing.T) {
	store := newMemoryCookieStore()
	store.cookies["localhost:4000"] = []*http.Cookie{
		{Name: RefreshCookie, Value: "r1", Expires: time.Now().Add(time.Hour)},
		{Name: AccountStatusCookie, Value: "verified", Expires: time.Now().Add(-time.Minute)},
	}

	c, err := New("http://localhost:4000", WithCookieStore(store))
	require.NoError(t, err)

	assert.True(t, c.HasSessionCookie())
	_, ok := c.PeekFlag(AccountStatusCookie)
	assert.False(t, ok)
}
