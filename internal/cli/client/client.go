package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Cookie names set by the API.
const (
	RefreshCookie           = "refreshToken"
	AccountStatusCookie     = "accountStatus"
	EmailChangeStatusCookie = "emailChangeStatus"
)

// ErrNoToken is returned by protected calls when the refresh call could not
// produce an access token.
var ErrNoToken = errors.New("no token available")

// CookieStore persists the session cookies between CLI invocations
type CookieStore interface {
	LoadCookies(host string) ([]*http.Cookie, error)
	SaveCookies(host string, cookies []*http.Cookie) error
}

// APIError is an application-level failure: the server answered with
// success=false.
type APIError struct {
	Status int
	Msg    string
	Errors map[string]string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for field, msg := range e.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("request failed (status %d)", e.Status)
}

// Envelope is the common response wrapper of every endpoint
type Envelope struct {
	Success bool              `json:"success"`
	Msg     string            `json:"msg,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (e *Envelope) envelope() *Envelope { return e }

type enveloped interface {
	envelope() *Envelope
}

// Client represents an HTTP client for the decisionhub API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	store      CookieStore
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithCookieStore persists cookies in store
func WithCookieStore(store CookieStore) Option {
	return func(c *Client) { c.store = store }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout overrides the default request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// New creates a new API client for baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	jar, err := newExpiryJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		jar:     jar,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		cookies, err := c.store.LoadCookies(u.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to load session cookies: %w", err)
		}
		for _, cookie := range cookies {
			cookie.Path = "/"
		}
		c.jar.SetCookies(u, cookies)
	}

	return c, nil
}

// SetHTTPClient sets a custom HTTP client. The client's cookie jar is kept.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	httpClient.Jar = c.jar
	c.httpClient = httpClient
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PeekFlag returns the value of a one-shot status cookie without consuming it
func (c *Client) PeekFlag(name string) (string, bool) {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

// TakeFlag returns the value of a one-shot status cookie and deletes it
func (c *Client) TakeFlag(name string) (string, bool) {
	value, ok := c.PeekFlag(name)
	if !ok {
		return "", false
	}

	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: name, Path: "/", MaxAge: -1}})
	c.persistCookies()
	return value, true
}

// HasSessionCookie reports whether a refresh cookie is present
func (c *Client) HasSessionCookie() bool {
	_, ok := c.PeekFlag(RefreshCookie)
	return ok
}

func (c *Client) persistCookies() {
	if c.store == nil {
		return
	}
	if err := c.store.SaveCookies(c.baseURL.Host, c.jar.Cookies(c.baseURL)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist session cookies")
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do sends a request and decodes the JSON body into out. A body with
// success=false becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.persistCookies()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("API call")

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if env, ok := out.(enveloped); ok {
		e := env.envelope()
		if !e.Success {
			return &APIError{Status: resp.StatusCode, Msg: e.Msg, Errors: e.Errors}
		}
	}

	return nil
}

// accessToken obtains a fresh access token. It is called before every
// protected request; tokens are never cached.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	token, err := c.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	return token, nil
}

// TokenResponse is returned by the refresh endpoint
type TokenResponse struct {
	Envelope
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// RefreshToken exchanges the session cookie for a short-lived access token
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodGet, "/auth/refresh", "", nil, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{Status: http.StatusOK, Msg: "refresh returned an empty token"}
	}
	return resp.Token, nil
}

// Profile is the session profile returned by the protected endpoint
type Profile struct {
	Envelope
	Name            string `json:"name"`
	University      string `json:"university"`
	Email           string `json:"email"`
	AccountCreation string `json:"accountCreation"`
	Role            string `json:"role,omitempty"`
	IsAdmin         bool   `json:"isAdmin,omitempty"`
}

// Profile fetches the authenticated user's profile
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/auth/protected", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name           string `json:"name"`
	University     string `json:"university"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Signup creates an account. Field-level rejections come back as an
// *APIError with Errors set.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Envelope, error) {
	var resp Envelope
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response. The session cookie arrives in
// Set-Cookie and lands in the jar.
type LoginResponse struct {
	Envelope
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// Login authenticates the user
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session cookie on the server
func (c *Client) Logout(ctx context.Context) (*Envelope, error) {
	var resp Envelope
	if err := c.do(ctx, http.MethodGet, "/auth/logout", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAccount deletes the authenticated account
func (c *Client) DeleteAccount(ctx context.Context) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodDelete, "/auth/deleteAccount", nil)
}

// UpdatePassword changes the password
func (c *Client) UpdatePassword(ctx context.Context, newPassword, repeatNewPassword string) (*Envelope, error) {
	body := map[string]string{
		"newPassword":       newPassword,
		"repeatNewPassword": repeatNewPassword,
	}
	return c.protectedCall(ctx, http.MethodPut, "/auth/updatePassword", body)
}

// ModifyUniversity updates the profile university
func (c *Client) ModifyUniversity(ctx context.Context, university string) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPut, "/auth/modifyUniversity", map[string]string{"newUniversity": university})
}

// ModifyName updates the profile name
func (c *Client) ModifyName(ctx context.Context, name string) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPut, "/auth/modifyName", map[string]string{"newName": name})
}

// ModifyEmail requests an email change; the server confirms it by mail
func (c *Client) ModifyEmail(ctx context.Context, email string) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPut, "/auth/modifyEmail", map[string]string{"newEmail": email})
}

func (c *Client) protectedCall(ctx context.Context, method, path string, body interface{}) (*Envelope, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp Envelope
	if err := c.do(ctx, method, path, token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowLink opens a confirmation link sent by email. The redirect to the web
// app is not followed; only the status cookies it sets are kept.
func (c *Client) FollowLink(ctx context.Context, link string) error {
	u, err := c.baseURL.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", link, err)
	}
	if u.Host != c.baseURL.Host {
		return fmt.Errorf("link %q does not belong to %s", link, c.baseURL.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.persistCookies()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(data))}
	}
	return nil
}

// Message returns the server message carried by err, or fallback when err
// is not an *APIError with a message.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return fallback
}
