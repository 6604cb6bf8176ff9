// Package session tracks who is logged in. A Provider starts in the loading
// state and resolves to authenticated or anonymous once the refresh and
// profile calls complete.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/rs/zerolog"
)

// ErrStale is returned when a fetch resolved after the provider moved on
// (logout, unmount or a newer fetch). Its result was discarded.
var ErrStale = errors.New("session changed while the request was in flight")

// API is the subset of the REST client the provider needs
type API interface {
	Profile(ctx context.Context) (*client.Profile, error)
	Logout(ctx context.Context) (*client.Envelope, error)
	Notifications(ctx context.Context) ([]client.Notification, error)
	PeekFlag(name string) (string, bool)
}

// Session is the profile of the logged in user
type Session struct {
	Name            string `json:"name" yaml:"name"`
	University      string `json:"university" yaml:"university"`
	Email           string `json:"email" yaml:"email"`
	AccountCreation string `json:"accountCreation" yaml:"accountCreation"`
	Role            string `json:"role,omitempty" yaml:"role,omitempty"`
	IsAdmin         bool   `json:"isAdmin,omitempty" yaml:"isAdmin,omitempty"`
}

// Admin reports whether the user may open the admin panel
func (s Session) Admin() bool {
	return s.Role == "admin" || s.IsAdmin
}

// State is a snapshot of the provider
type State struct {
	Loading       bool
	LoggedIn      bool
	Session       Session
	Notifications []client.Notification
}

// Unread counts notifications not yet read
func (s State) Unread() int {
	return countUnread(s.Notifications)
}

func countUnread(list []client.Notification) int {
	n := 0
	for _, notif := range list {
		if !notif.Read {
			n++
		}
	}
	return n
}

// Listener receives a snapshot after every change
type Listener func(State)

// Provider owns the session and the notification list
type Provider struct {
	api    API
	logger zerolog.Logger

	mu            sync.RWMutex
	loading       bool
	loggedIn      bool
	session       Session
	notifications []client.Notification
	generation    uint64

	ctx       context.Context
	cancel    context.CancelFunc
	ready     chan struct{}
	readyOnce sync.Once

	listeners map[int]Listener
	nextID    int
}

// New creates a provider in the loading state
func New(api API, logger zerolog.Logger) *Provider {
	ctx, cancel := context.WithCancel(context.Background())
	return &Provider{
		api:           api,
		logger:        logger,
		loading:       true,
		notifications: []client.Notification{},
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan struct{}),
		listeners:     make(map[int]Listener),
	}
}

// Mount starts initialization in the background. Ready is closed when the
// loading phase ends. The provider keeps the values of ctx but not its
// cancellation; it lives until Unmount.
func (p *Provider) Mount(ctx context.Context) {
	p.mu.Lock()
	p.cancel()
	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	mountCtx := p.ctx
	p.mu.Unlock()

	go func() {
		if err := p.Init(mountCtx); err != nil {
			p.logger.Debug().Err(err).Msg("Session initialization ended without a session")
		}
	}()
}

// Ready is closed once the provider has left the loading state
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Init runs the loading phase synchronously. A nil error means the user is
// authenticated.
func (p *Provider) Init(ctx context.Context) error {
	defer p.markReady()

	if status, ok := p.api.PeekFlag(client.EmailChangeStatusCookie); ok && status == "verified" {
		p.logger.Info().Msg("Email changed, signing out")
		if _, err := p.api.Logout(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("Logout after email change failed")
		}
		p.mu.Lock()
		p.generation++
		p.loading = false
		p.loggedIn = false
		p.session = Session{}
		p.mu.Unlock()
		p.emit()
		return nil
	}

	return p.load(ctx)
}

// Reload re-runs the refresh and profile sequence
func (p *Provider) Reload(ctx context.Context) error {
	return p.load(ctx)
}

func (p *Provider) load(ctx context.Context) error {
	gen := p.beginFetch()

	profile, err := p.api.Profile(ctx)

	p.mu.Lock()
	if !p.current(ctx, gen) {
		p.mu.Unlock()
		p.logger.Debug().Msg("Dropping stale profile result")
		return ErrStale
	}
	p.loading = false
	if err != nil {
		p.loggedIn = false
		p.session = Session{}
	} else {
		p.loggedIn = true
		p.session = Session{
			Name:            profile.Name,
			University:      profile.University,
			Email:           profile.Email,
			AccountCreation: profile.AccountCreation,
			Role:            profile.Role,
			IsAdmin:         profile.IsAdmin,
		}
	}
	p.mu.Unlock()
	p.emit()

	if err != nil {
		p.logger.Debug().Err(err).Msg("No active session")
		return err
	}

	if err := p.FetchNotifications(ctx); err != nil && !errors.Is(err, ErrStale) {
		p.logger.Error().Err(err).Msg("Error fetching notifications")
	}
	return nil
}

// FetchNotifications replaces the notification list with the server's
func (p *Provider) FetchNotifications(ctx context.Context) error {
	gen := p.beginFetch()

	notifications, err := p.api.Notifications(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if !p.current(ctx, gen) {
		p.mu.Unlock()
		return ErrStale
	}
	p.notifications = notifications
	p.mu.Unlock()
	p.emit()
	return nil
}

// Logout ends the session on the server and locally. The local transition
// happens even when the server call fails; that error is returned.
func (p *Provider) Logout(ctx context.Context) error {
	_, err := p.api.Logout(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Server logout failed, session cleared locally")
	}

	p.mu.Lock()
	p.generation++
	p.loading = false
	p.loggedIn = false
	p.session = Session{}
	p.notifications = []client.Notification{}
	p.mu.Unlock()
	p.markReady()
	p.emit()

	return err
}

// Unmount cancels in-flight work; late results are dropped
func (p *Provider) Unmount() {
	p.mu.Lock()
	p.generation++
	p.cancel()
	p.mu.Unlock()
}

// UpdateSession applies fn to the session
func (p *Provider) UpdateSession(fn func(*Session)) {
	p.mu.Lock()
	fn(&p.session)
	p.mu.Unlock()
	p.emit()
}

// UpdateNotifications applies fn to the notification list. fn may modify
// the slice in place or return a new one.
func (p *Provider) UpdateNotifications(fn func([]client.Notification) []client.Notification) {
	p.mu.Lock()
	p.notifications = fn(p.notifications)
	if p.notifications == nil {
		p.notifications = []client.Notification{}
	}
	p.mu.Unlock()
	p.emit()
}

// SetLoggedIn overrides the authenticated flag
func (p *Provider) SetLoggedIn(loggedIn bool) {
	p.mu.Lock()
	p.loggedIn = loggedIn
	if !loggedIn {
		p.generation++
		p.session = Session{}
	}
	p.mu.Unlock()
	p.emit()
}

// State returns a snapshot
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot()
}

// IsLoggedIn reports whether the last profile fetch succeeded
func (p *Provider) IsLoggedIn() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loggedIn
}

// Loading reports whether initialization is still running
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Session returns the current profile
func (p *Provider) Session() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// Notifications returns a copy of the notification list
func (p *Provider) Notifications() []client.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]client.Notification{}, p.notifications...)
}

// Unread counts the notifications not read yet
func (p *Provider) Unread() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return countUnread(p.notifications)
}

// Subscribe registers fn and returns a func that removes it
func (p *Provider) Subscribe(fn Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) beginFetch() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// current must be called with mu held
func (p *Provider) current(ctx context.Context, gen uint64) bool {
	return gen == p.generation && ctx.Err() == nil && p.ctx.Err() == nil
}

func (p *Provider) markReady() {
	p.readyOnce.Do(func() { close(p.ready) })
}

func (p *Provider) snapshot() State {
	return State{
		Loading:       p.loading,
		LoggedIn:      p.loggedIn,
		Session:       p.session,
		Notifications: append([]client.Notification{}, p.notifications...),
	}
}

func (p *Provider) emit() {
	p.mu.RLock()
	state := p.snapshot()
	listeners := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(state)
	}
}
