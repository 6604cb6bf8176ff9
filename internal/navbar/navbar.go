// Package navbar implements the dashboard navigation: section tabs, the user
// menu and the notification drawer.
package navbar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/issues"
	"github.com/decisionhub/decisionhub/internal/session"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidAction is returned for invitation actions other than
	// accepted or declined.
	ErrInvalidAction = errors.New("invalid invitation action")
	// ErrNoPendingRemoval is returned by ConfirmRemove without a prior AskRemove.
	ErrNoPendingRemoval = errors.New("no notification selected for removal")
	// ErrUnknownOption is returned for user menu entries that do not exist.
	ErrUnknownOption = errors.New("unknown menu option")
)

// Toast texts
const (
	MsgModelsUnavailable = "Models page is not available yet"
	MsgAdminForbidden    = "You don't have permission to access Admin panel"
)

// ResponseStatus values written after an invitation answer
const (
	StatusAccepted client.ResponseStatus = "Invitation accepted"
	StatusDeclined client.ResponseStatus = "Invitation declined"
)

// API is the subset of the REST client the navbar needs
type API interface {
	MarkAllNotificationsAsRead(ctx context.Context) (*client.Envelope, error)
	RemoveNotification(ctx context.Context, notificationID string) (*client.Envelope, error)
	ChangeInvitationStatus(ctx context.Context, issueID, action string) (*client.Envelope, error)
}

// Navbar holds drawer and dialog state on top of the session provider
type Navbar struct {
	api      API
	session  *session.Provider
	issues   *issues.Store
	snackbar *snackbar.Provider
	logger   zerolog.Logger

	mu            sync.RWMutex
	drawerOpen    bool
	pendingRemove string
	removeOpen    bool
	logoutOpen    bool
	panel         Panel
}

// New wires a navbar to the providers
func New(api API, sess *session.Provider, store *issues.Store, snack *snackbar.Provider, logger zerolog.Logger) *Navbar {
	return &Navbar{
		api:      api,
		session:  sess,
		issues:   store,
		snackbar: snack,
		logger:   logger,
	}
}

// Unread returns the badge count, read from the session's current list
func (n *Navbar) Unread() int {
	return n.session.Unread()
}

// DrawerOpen reports whether the notification drawer is shown
func (n *Navbar) DrawerOpen() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.drawerOpen
}

// OpenDrawer shows the drawer and marks every notification as read. The
// local update is applied first and kept even if the server call fails.
func (n *Navbar) OpenDrawer(ctx context.Context) error {
	n.mu.Lock()
	n.drawerOpen = true
	n.mu.Unlock()

	n.session.UpdateNotifications(func(list []client.Notification) []client.Notification {
		for i := range list {
			list[i].Read = true
		}
		return list
	})

	if _, err := n.api.MarkAllNotificationsAsRead(ctx); err != nil {
		n.logger.Warn().Err(err).Msg("Local and server read state diverged")
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// CloseDrawer hides the drawer
func (n *Navbar) CloseDrawer() {
	n.mu.Lock()
	n.drawerOpen = false
	n.mu.Unlock()
}

// RespondInvitation answers the invitation to issueID
func (n *Navbar) RespondInvitation(ctx context.Context, issueID, action string) error {
	if action != client.ActionAccepted && action != client.ActionDeclined {
		return ErrInvalidAction
	}

	resp, err := n.api.ChangeInvitationStatus(ctx, issueID, action)
	if err != nil {
		n.logger.Error().Err(err).Str("issue_id", issueID).Str("action", action).Msg("Failed to answer invitation")
		n.snackbar.Show(client.Message(err, "Error changing invitation status"), snackbar.SeverityError)
		return err
	}

	status := StatusDeclined
	if action == client.ActionAccepted {
		status = StatusAccepted
	}
	n.session.UpdateNotifications(func(list []client.Notification) []client.Notification {
		for i := range list {
			if list[i].IssueID == issueID {
				list[i].ResponseStatus = status
			}
		}
		return list
	})

	if action == client.ActionAccepted {
		if err := n.issues.FetchActive(ctx); err != nil {
			n.logger.Error().Err(err).Msg("Failed to refresh active issues")
		}
		n.snackbar.Show(resp.Msg, snackbar.SeveritySuccess)
	} else {
		n.snackbar.Show(resp.Msg, snackbar.SeverityWarning)
	}
	return nil
}

// AskRemove opens the confirmation dialog for a notification
func (n *Navbar) AskRemove(notificationID string) {
	n.mu.Lock()
	n.pendingRemove = notificationID
	n.removeOpen = true
	n.mu.Unlock()
}

// RemoveDialogOpen reports whether the removal confirmation is shown
func (n *Navbar) RemoveDialogOpen() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.removeOpen
}

// DismissRemove closes the dialog without removing anything
func (n *Navbar) DismissRemove() {
	n.mu.Lock()
	n.pendingRemove = ""
	n.removeOpen = false
	n.mu.Unlock()
}

// ConfirmRemove deletes the selected notification. The dialog closes
// whatever the outcome.
func (n *Navbar) ConfirmRemove(ctx context.Context) error {
	n.mu.Lock()
	id := n.pendingRemove
	n.pendingRemove = ""
	n.removeOpen = false
	n.mu.Unlock()

	if id == "" {
		return ErrNoPendingRemoval
	}

	if _, err := n.api.RemoveNotification(ctx, id); err != nil {
		n.logger.Error().Err(err).Str("notification_id", id).Msg("Failed to remove notification")
		n.snackbar.Show(client.Message(err, "Error removing notification"), snackbar.SeverityError)
		return err
	}

	n.session.UpdateNotifications(func(list []client.Notification) []client.Notification {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i:i], list[i+1:]...)
			}
		}
		return list
	})
	return nil
}

// Refresh refetches notifications and active issues concurrently
func (n *Navbar) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.session.FetchNotifications(gctx)
	})
	g.Go(func() error {
		return n.issues.FetchActive(gctx)
	})
	return g.Wait()
}

// Tab is one dashboard section
type Tab struct {
	Label     string
	URL       string
	Disabled  bool
	AdminOnly bool
}

var tabs = []Tab{
	{Label: "Active issues", URL: "/dashboard/active"},
	{Label: "Finished issues", URL: "/dashboard/finished"},
	{Label: "Create issue", URL: "/dashboard/create"},
	{Label: "Models", URL: "/dashboard/models", Disabled: true},
	{Label: "Admin", URL: "/dashboard/admin", AdminOnly: true},
}

// Pages lists the tabs visible to the current user
func (n *Navbar) Pages() []Tab {
	admin := n.session.Session().Admin()
	out := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.AdminOnly && !admin {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ActiveTab returns the index in Pages of the tab whose URL prefixes path,
// or 0.
func (n *Navbar) ActiveTab(path string) int {
	for i, t := range n.Pages() {
		if strings.HasPrefix(path, t.URL) {
			return i
		}
	}
	return 0
}

// SelectTab returns the URL to navigate to for label. Unavailable tabs
// toast instead and return false.
func (n *Navbar) SelectTab(label string) (string, bool) {
	for _, t := range tabs {
		if t.Label != label {
			continue
		}
		if t.Disabled {
			n.snackbar.Show(MsgModelsUnavailable, snackbar.SeverityInfo)
			return "", false
		}
		if t.AdminOnly && !n.session.Session().Admin() {
			n.snackbar.Show(MsgAdminForbidden, snackbar.SeverityWarning)
			return "", false
		}
		return t.URL, true
	}
	return "", false
}

// Panel opened from the user menu
type Panel string

const (
	PanelNone          Panel = ""
	PanelAccount       Panel = "Account"
	PanelNotifications Panel = "Notifications"
	PanelSettings      Panel = "Settings"
	PanelLogout        Panel = "Logout"
)

// Options are the user menu entries in display order
var Options = []Panel{PanelAccount, PanelNotifications, PanelSettings, PanelLogout}

// SelectOption handles a user menu entry
func (n *Navbar) SelectOption(ctx context.Context, option Panel) error {
	switch option {
	case PanelAccount, PanelSettings:
		n.mu.Lock()
		n.panel = option
		n.mu.Unlock()
		return nil
	case PanelNotifications:
		return n.OpenDrawer(ctx)
	case PanelLogout:
		n.mu.Lock()
		n.logoutOpen = true
		n.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
}

// Panel returns the panel opened from the user menu
func (n *Navbar) Panel() Panel {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.panel
}

// ClosePanel closes the account or settings panel
func (n *Navbar) ClosePanel() {
	n.mu.Lock()
	n.panel = PanelNone
	n.mu.Unlock()
}

// LogoutDialogOpen reports whether the logout confirmation is shown
func (n *Navbar) LogoutDialogOpen() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.logoutOpen
}

// CancelLogout closes the logout confirmation
func (n *Navbar) CancelLogout() {
	n.mu.Lock()
	n.logoutOpen = false
	n.mu.Unlock()
}

// ConfirmLogout logs out and closes the dialog
func (n *Navbar) ConfirmLogout(ctx context.Context) error {
	n.mu.Lock()
	n.logoutOpen = false
	n.mu.Unlock()

	return n.session.Logout(ctx)
}
