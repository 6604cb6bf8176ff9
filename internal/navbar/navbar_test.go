package navbar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/decisionhub/decisionhub/internal/issues"
	"github.com/decisionhub/decisionhub/internal/session"
	"github.com/decisionhub/decisionhub/internal/snackbar"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements every API the navbar stack needs
type fakeAPI struct {
	mu            sync.Mutex
	profile       client.Profile
	notifications []client.Notification
	issues        []client.Issue
	issueCalls    int

	markErr   error
	removeErr error
	inviteErr error
	inviteMsg string
	removed   []string
}

func (f *fakeAPI) Profile(ctx context.Context) (*client.Profile, error) {
	p := f.profile
	return &p, nil
}

func (f *fakeAPI) Logout(ctx context.Context) (*client.Envelope, error) {
	return &client.Envelope{Success: true}, nil
}

func (f *fakeAPI) Notifications(ctx context.Context) ([]client.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Notification{}, f.notifications...), nil
}

func (f *fakeAPI) PeekFlag(name string) (string, bool) { return "", false }

func (f *fakeAPI) ActiveIssues(ctx context.Context) ([]client.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueCalls++
	return f.issues, nil
}

func (f *fakeAPI) MarkAllNotificationsAsRead(ctx context.Context) (*client.Envelope, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	return &client.Envelope{Success: true}, nil
}

func (f *fakeAPI) RemoveNotification(ctx context.Context, id string) (*client.Envelope, error) {
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	f.removed = append(f.removed, id)
	return &client.Envelope{Success: true, Msg: "Notification removed"}, nil
}

func (f *fakeAPI) ChangeInvitationStatus(ctx context.Context, issueID, action string) (*client.Envelope, error) {
	if f.inviteErr != nil {
		return nil, f.inviteErr
	}
	return &client.Envelope{Success: true, Msg: f.inviteMsg}, nil
}

type fixture struct {
	api   *fakeAPI
	sess  *session.Provider
	snack *snackbar.Provider
	store *issues.Store
	nav   *Navbar
}

func newFixture(t *testing.T, api *fakeAPI) *fixture {
	t.Helper()
	logger := zerolog.Nop()

	sess := session.New(api, logger)
	require.NoError(t, sess.Init(context.Background()))

	snack := snackbar.New(logger)
	store := issues.NewStore(api, logger)
	nav := New(api, sess, store, snack, logger)

	return &fixture{api: api, sess: sess, snack: snack, store: store, nav: nav}
}

func sampleAPI() *fakeAPI {
	return &fakeAPI{
		profile: client.Profile{Name: "Ana"},
		notifications: []client.Notification{
			{ID: "n1", Read: false, RequiresAction: true, IssueID: "i1"},
			{ID: "n2", Read: false},
			{ID: "n1", Read: true},
			{ID: "n3", Read: true, IssueID: "i1"},
		},
		issues:    []client.Issue{{ID: "i1", Name: "Supplier"}},
		inviteMsg: "Invitation updated",
	}
}

func TestUnreadFollowsSession(t *testing.T) {
	f := newFixture(t, sampleAPI())
	assert.Equal(t, 2, f.nav.Unread())

	f.sess.UpdateNotifications(func(list []client.Notification) []client.Notification {
		return append(list, client.Notification{ID: "n4"})
	})
	assert.Equal(t, 3, f.nav.Unread())
}

func TestUnreadMatchesSessionUnderConcurrentUpdates(t *testing.T) {
	api := sampleAPI()
	f := newFixture(t, api)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		api.mu.Lock()
		api.notifications = append(api.notifications, client.Notification{ID: fmt.Sprintf("new-%d", i)})
		api.mu.Unlock()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.nav.Refresh(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = f.nav.OpenDrawer(ctx)
		}()
		wg.Wait()

		require.Equal(t, f.sess.State().Unread(), f.nav.Unread(), "iteration %d", i)
	}
}

func TestOpenDrawerMarksAllRead(t *testing.T) {
	f := newFixture(t, sampleAPI())

	require.NoError(t, f.nav.OpenDrawer(context.Background()))

	assert.True(t, f.nav.DrawerOpen())
	assert.Equal(t, 0, f.nav.Unread())
	for _, n := range f.sess.Notifications() {
		assert.True(t, n.Read)
	}
}

func TestOpenDrawerServerFailureKeepsLocalState(t *testing.T) {
	api := sampleAPI()
	api.markErr = errors.New("server down")
	f := newFixture(t, api)

	err := f.nav.OpenDrawer(context.Background())
	require.Error(t, err)

	assert.Equal(t, 0, f.nav.Unread())
}

func TestAcceptInvitation(t *testing.T) {
	f := newFixture(t, sampleAPI())

	require.NoError(t, f.nav.RespondInvitation(context.Background(), "i1", client.ActionAccepted))

	for _, n := range f.sess.Notifications() {
		if n.IssueID == "i1" {
			assert.Equal(t, StatusAccepted, n.ResponseStatus)
		} else {
			assert.Equal(t, client.ResponseStatus(""), n.ResponseStatus)
		}
	}
	assert.Equal(t, 1, f.api.issueCalls)
	assert.Len(t, f.store.Active(), 1)
	assert.Equal(t, snackbar.Message{Text: "Invitation updated", Severity: snackbar.SeveritySuccess, Open: true}, f.snack.Current())
}

func TestDeclineInvitation(t *testing.T) {
	f := newFixture(t, sampleAPI())

	require.NoError(t, f.nav.RespondInvitation(context.Background(), "i1", client.ActionDeclined))

	assert.Equal(t, StatusDeclined, f.sess.Notifications()[0].ResponseStatus)
	assert.Equal(t, 0, f.api.issueCalls)
	assert.Equal(t, snackbar.SeverityWarning, f.snack.Current().Severity)
}

func TestInvitationFailureLeavesState(t *testing.T) {
	api := sampleAPI()
	api.inviteErr = &client.APIError{Status: http.StatusNotFound, Msg: "Issue not found"}
	f := newFixture(t, api)
	before := f.sess.Notifications()

	err := f.nav.RespondInvitation(context.Background(), "i1", client.ActionAccepted)
	require.Error(t, err)

	assert.Equal(t, before, f.sess.Notifications())
	assert.Equal(t, snackbar.Message{Text: "Issue not found", Severity: snackbar.SeverityError, Open: true}, f.snack.Current())
}

func TestInvalidActionIgnored(t *testing.T) {
	f := newFixture(t, sampleAPI())

	err := f.nav.RespondInvitation(context.Background(), "i1", "maybe")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.False(t, f.snack.Current().Open)
}

func TestConfirmRemoveSplicesFirstMatch(t *testing.T) {
	f := newFixture(t, sampleAPI())

	f.nav.AskRemove("n1")
	assert.True(t, f.nav.RemoveDialogOpen())
	require.NoError(t, f.nav.ConfirmRemove(context.Background()))

	assert.False(t, f.nav.RemoveDialogOpen())
	ids := []string{}
	for _, n := range f.sess.Notifications() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n2", "n1", "n3"}, ids)
	assert.Equal(t, []string{"n1"}, f.api.removed)
}

func TestConfirmRemoveFailure(t *testing.T) {
	api := sampleAPI()
	api.removeErr = &client.APIError{Status: http.StatusInternalServerError, Msg: "Error removing notification"}
	f := newFixture(t, api)

	f.nav.AskRemove("n2")
	require.Error(t, f.nav.ConfirmRemove(context.Background()))

	assert.False(t, f.nav.RemoveDialogOpen())
	assert.Len(t, f.sess.Notifications(), 4)
	assert.Equal(t, snackbar.SeverityError, f.snack.Current().Severity)
}

func TestConfirmRemoveWithoutSelection(t *testing.T) {
	f := newFixture(t, sampleAPI())

	f.nav.AskRemove("n2")
	f.nav.DismissRemove()
	assert.ErrorIs(t, f.nav.ConfirmRemove(context.Background()), ErrNoPendingRemoval)
}

func TestTabs(t *testing.T) {
	f := newFixture(t, sampleAPI())

	labels := []string{}
	for _, tab := range f.nav.Pages() {
		labels = append(labels, tab.Label)
	}
	assert.Equal(t, []string{"Active issues", "Finished issues", "Create issue", "Models"}, labels)
	assert.Equal(t, 1, f.nav.ActiveTab("/dashboard/finished/42"))
	assert.Equal(t, 0, f.nav.ActiveTab("/somewhere"))

	url, ok := f.nav.SelectTab("Create issue")
	assert.True(t, ok)
	assert.Equal(t, "/dashboard/create", url)

	_, ok = f.nav.SelectTab("Models")
	assert.False(t, ok)
	assert.Equal(t, MsgModelsUnavailable, f.snack.Current().Text)

	_, ok = f.nav.SelectTab("Admin")
	assert.False(t, ok)
	assert.Equal(t, MsgAdminForbidden, f.snack.Current().Text)
}

func TestAdminTab(t *testing.T) {
	api := sampleAPI()
	api.profile.Role = "admin"
	f := newFixture(t, api)

	assert.Len(t, f.nav.Pages(), 5)
	url, ok := f.nav.SelectTab("Admin")
	assert.True(t, ok)
	assert.Equal(t, "/dashboard/admin", url)
	assert.Equal(t, 4, f.nav.ActiveTab("/dashboard/admin/users"))
}

func TestUserMenu(t *testing.T) {
	f := newFixture(t, sampleAPI())
	ctx := context.Background()

	require.NoError(t, f.nav.SelectOption(ctx, PanelSettings))
	assert.Equal(t, PanelSettings, f.nav.Panel())
	f.nav.ClosePanel()

	require.NoError(t, f.nav.SelectOption(ctx, PanelNotifications))
	assert.True(t, f.nav.DrawerOpen())

	require.NoError(t, f.nav.SelectOption(ctx, PanelLogout))
	assert.True(t, f.nav.LogoutDialogOpen())
	assert.True(t, f.sess.IsLoggedIn())

	require.NoError(t, f.nav.ConfirmLogout(ctx))
	assert.False(t, f.nav.LogoutDialogOpen())
	assert.False(t, f.sess.IsLoggedIn())

	assert.ErrorIs(t, f.nav.SelectOption(ctx, "Billing"), ErrUnknownOption)
}

func TestRefresh(t *testing.T) {
	api := sampleAPI()
	f := newFixture(t, api)

	api.mu.Lock()
	api.notifications = api.notifications[:1]
	api.mu.Unlock()

	require.NoError(t, f.nav.Refresh(context.Background()))
	assert.Len(t, f.sess.Notifications(), 1)
	assert.Len(t, f.store.Active(), 1)
}
