package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisionhub/decisionhub/internal/config"
	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/models"
)

const testAppURL = "http://app.test"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			AllowedOrigins: []string{testAppURL},
			AppURL:         testAppURL,
		},
		Database: config.DatabaseConfig{
			URL: "file:" + ulid.Make().String() + "?mode=memory&cache=shared",
		},
		JWT: config.JWTConfig{
			Secret:        "test-secret",
			RefreshSecret: "test-refresh-secret",
		},
		SeedDemo: true,
	}

	s, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, mod := range mods {
		mod(req)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func withCookie(cookie *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(cookie) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// login returns the refresh cookie of a successful login
func login(t *testing.T, s *Server, email, password string) *http.Cookie {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["success"], "body: %s", w.Body.String())

	cookie := findCookie(w, refreshCookie)
	require.NotNil(t, cookie)
	return cookie
}

// accessToken logs in and exchanges the refresh cookie for a bearer token
func accessToken(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	cookie := login(t, s, email, password)

	w := doJSON(t, s, http.MethodGet, "/auth/refresh", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func issueID(t *testing.T, s *Server, name string) string {
	t.Helper()
	var issue models.Issue
	require.NoError(t, s.GetDB().Where("name = ?", name).First(&issue).Error)
	return issue.ID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode(t, w)["status"])
}

func TestLogin_Rejections(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
		message  string
	}{
		{"unknown user", "nobody@b.com", "abc123", "email", "User does not exist"},
		{"wrong password", DemoEmail, "wrong123", "password", "Incorrect password"},
		{"malformed email", "not-an-email", "abc123", "email", forms.MsgEmail},
		{"weak password", DemoEmail, "abcdef", "password", forms.MsgPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{Email: tt.email, Password: tt.password})
			require.Equal(t, http.StatusOK, w.Code)

			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			errs, ok := body["errors"].(map[string]interface{})
			require.True(t, ok, "body: %s", w.Body.String())
			assert.Equal(t, tt.message, errs[tt.field])
			assert.Nil(t, findCookie(w, refreshCookie))
		})
	}
}

func TestSignupConfirmAndLogin(t *testing.T) {
	s := newTestServer(t)

	signup := forms.SignupValues{
		Name:           "Luis",
		University:     "Universidad de Jaen",
		Email:          "luis@ujaen.es",
		Password:       "luis123",
		RepeatPassword: "luis123",
	}

	w := doJSON(t, s, http.MethodPost, "/auth/signup", signup)
	body := decode(t, w)
	require.Equal(t, true, body["success"], "body: %s", w.Body.String())
	assert.Equal(t, "Signup successful", body["msg"])

	// Same email again
	w = doJSON(t, s, http.MethodPost, "/auth/signup", signup)
	body = decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]interface{}{"email": "Email already registered"}, body["errors"])

	// Not confirmed yet
	w = doJSON(t, s, http.MethodPost, "/auth/login", LoginRequest{Email: signup.Email, Password: signup.Password})
	body = decode(t, w)
	assert.Equal(t, map[string]interface{}{"email": "Email not verified"}, body["errors"])

	var user models.User
	require.NoError(t, s.GetDB().Where("email = ?", signup.Email).First(&user).Error)
	require.NotEmpty(t, user.TokenConfirm)

	w = doJSON(t, s, http.MethodGet, "/auth/accountConfirm/"+user.TokenConfirm, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testAppURL+"/", w.Header().Get("Location"))
	status := findCookie(w, accountStatusCookie)
	require.NotNil(t, status)
	assert.Equal(t, "verified", status.Value)

	login(t, s, signup.Email, signup.Password)

	// The token is single use
	w = doJSON(t, s, http.MethodGet, "/auth/accountConfirm/"+user.TokenConfirm, nil)
	status = findCookie(w, accountStatusCookie)
	require.NotNil(t, status)
	assert.Equal(t, "verification_failed", status.Value)
}

func TestSignup_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/auth/signup", forms.SignupValues{
		Name:           "Luis",
		University:     "UJA",
		Email:          "luis@ujaen.es",
		Password:       "luis123",
		RepeatPassword: "luis124",
	})
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]interface{}{"repeatPassword": forms.MsgRepeatPassword}, body["errors"])
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token does not exist", decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodGet, "/auth/refresh", nil, withCookie(&http.Cookie{Name: refreshCookie, Value: "garbage"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, w)["msg"])

	cookie := login(t, s, DemoEmail, DemoPassword)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	w = doJSON(t, s, http.MethodGet, "/auth/refresh", nil, withCookie(cookie))
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(900), body["expiresIn"])
}

func TestProtectedProfile(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/auth/protected", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := accessToken(t, s, DemoEmail, DemoPassword)
	w = doJSON(t, s, http.MethodGet, "/auth/protected", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, DemoEmail, body["email"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, false, body["isAdmin"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, body["accountCreation"])
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/auth/logout", nil)
	assert.Equal(t, "Logged out successfully", decode(t, w)["msg"])

	cookie := findCookie(w, refreshCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestNotificationsFlow(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s, DemoEmail, DemoPassword)
	pendingID := issueID(t, s, DemoPendingIssue)

	list := func() []interface{} {
		w := doJSON(t, s, http.MethodGet, "/issues/getNotifications", nil, withBearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		notifications, ok := decode(t, w)["notifications"].([]interface{})
		require.True(t, ok)
		return notifications
	}

	notifications := list()
	require.Len(t, notifications, 2)

	invitation := notifications[0].(map[string]interface{})
	assert.Equal(t, "Invitation", invitation["header"])
	assert.Equal(t, pendingID, invitation["issueId"])
	assert.Equal(t, true, invitation["requiresAction"])
	assert.Equal(t, false, invitation["responseStatus"])
	assert.Equal(t, false, invitation["read"])

	// Messages report the answer given for their issue too
	message := notifications[1].(map[string]interface{})
	assert.Equal(t, DemoActiveIssue, message["header"])
	assert.Equal(t, false, message["requiresAction"])
	assert.Equal(t, "Invitation accepted", message["responseStatus"])

	w := doJSON(t, s, http.MethodGet, "/issues/getAllActiveIssues", nil, withBearer(token))
	issues := decode(t, w)["issues"].([]interface{})
	require.Len(t, issues, 1)
	assert.Equal(t, "Admin", issues[0].(map[string]interface{})["creator"])

	w = doJSON(t, s, http.MethodPost, "/issues/changeInvitationStatus",
		map[string]string{"issueId": pendingID, "action": "accepted"}, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, "Invitation to issue Renewable Energy accepted", decode(t, w)["msg"])

	notifications = list()
	assert.Equal(t, "Invitation accepted", notifications[0].(map[string]interface{})["responseStatus"])

	w = doJSON(t, s, http.MethodGet, "/issues/getAllActiveIssues", nil, withBearer(token))
	assert.Len(t, decode(t, w)["issues"], 2)

	w = doJSON(t, s, http.MethodPost, "/issues/markAllNotificationsAsRead", nil, withBearer(token))
	assert.Equal(t, "Notifications marked as read", decode(t, w)["msg"])
	for _, n := range list() {
		assert.Equal(t, true, n.(map[string]interface{})["read"])
	}

	id := message["_id"].(string)
	w = doJSON(t, s, http.MethodPost, "/issues/removeNotificationById",
		map[string]string{"notificationId": id}, withBearer(token))
	assert.Equal(t, "Message removed", decode(t, w)["msg"])
	assert.Len(t, list(), 1)

	w = doJSON(t, s, http.MethodPost, "/issues/removeNotificationById",
		map[string]string{"notificationId": id}, withBearer(token))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Notification not found", decode(t, w)["msg"])
}

func TestChangeInvitationStatus_Rejections(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s, DemoEmail, DemoPassword)
	pendingID := issueID(t, s, DemoPendingIssue)

	w := doJSON(t, s, http.MethodPost, "/issues/changeInvitationStatus",
		map[string]string{"issueId": pendingID, "action": "maybe"}, withBearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/issues/changeInvitationStatus",
		map[string]string{"issueId": "missing", "action": "declined"}, withBearer(token))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Issue not found", decode(t, w)["msg"])

	// The admin was never invited to the pending issue
	adminToken := accessToken(t, s, DemoAdminEmail, DemoAdminPassword)
	w = doJSON(t, s, http.MethodPost, "/issues/changeInvitationStatus",
		map[string]string{"issueId": pendingID, "action": "declined"}, withBearer(adminToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No participation found for the user in this issue", decode(t, w)["msg"])
}

func TestModifyProfile(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s, DemoEmail, DemoPassword)

	w := doJSON(t, s, http.MethodPut, "/auth/modifyName", map[string]string{"newName": "Ana Maria"}, withBearer(token))
	assert.Equal(t, "Name updated successfully", decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodPut, "/auth/modifyUniversity", map[string]string{"newUniversity": "UGR"}, withBearer(token))
	assert.Equal(t, "University updated successfully", decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodPut, "/auth/modifyName", map[string]string{"newName": "R2D2"}, withBearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, forms.MsgPersonName, decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodGet, "/auth/protected", nil, withBearer(token))
	body := decode(t, w)
	assert.Equal(t, "Ana Maria", body["name"])
	assert.Equal(t, "UGR", body["university"])
}

func TestModifyEmailConfirm(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s, DemoEmail, DemoPassword)

	w := doJSON(t, s, http.MethodPut, "/auth/modifyEmail", map[string]string{"newEmail": DemoAdminEmail}, withBearer(token))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPut, "/auth/modifyEmail", map[string]string{"newEmail": "ana@ujaen.es"}, withBearer(token))
	assert.Equal(t, "Please, check new email for confirmation", decode(t, w)["msg"])

	var user models.User
	require.NoError(t, s.GetDB().Where("email = ?", DemoEmail).First(&user).Error)
	require.NotEmpty(t, user.EmailTokenConfirm)

	w = doJSON(t, s, http.MethodGet, "/auth/confirmEmailChange/bogus", nil)
	assert.Equal(t, "verification_failed", findCookie(w, emailChangeStatusCookie).Value)

	w = doJSON(t, s, http.MethodGet, "/auth/confirmEmailChange/"+user.EmailTokenConfirm, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	status := findCookie(w, emailChangeStatusCookie)
	require.NotNil(t, status)
	assert.Equal(t, "verified", status.Value)
	assert.Equal(t, statusCookieMaxAge, status.MaxAge)

	login(t, s, "ana@ujaen.es", DemoPassword)
}

func TestUpdatePassword(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s, DemoEmail, DemoPassword)

	w := doJSON(t, s, http.MethodPut, "/auth/updatePassword",
		UpdatePasswordRequest{NewPassword: "new123", RepeatNewPassword: "new124"}, withBearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Passwords do not match", decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodPut, "/auth/updatePassword",
		UpdatePasswordRequest{NewPassword: "short", RepeatNewPassword: "short"}, withBearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPut, "/auth/updatePassword",
		UpdatePasswordRequest{NewPassword: "new123", RepeatNewPassword: "new123"}, withBearer(token))
	assert.Equal(t, "Password updated successfully", decode(t, w)["msg"])

	login(t, s, DemoEmail, "new123")
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s, DemoEmail, DemoPassword)
	token := accessToken(t, s, DemoEmail, DemoPassword)

	w := doJSON(t, s, http.MethodDelete, "/auth/deleteAccount", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, "Account deleted successfully", decode(t, w)["msg"])

	w = doJSON(t, s, http.MethodGet, "/auth/refresh", nil, withCookie(cookie))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", decode(t, w)["msg"])

	var count int64
	require.NoError(t, s.GetDB().Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminCheck(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/auth/admin/check", nil, withBearer(accessToken(t, s, DemoEmail, DemoPassword)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, s, http.MethodGet, "/auth/admin/check", nil, withBearer(accessToken(t, s, DemoAdminEmail, DemoAdminPassword)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.seedDemo())

	var count int64
	require.NoError(t, s.GetDB().Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
