package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Invitation actions accepted by ChangeInvitationStatus
const (
	ActionAccepted = "accepted"
	ActionDeclined = "declined"
)

// ResponseStatus is the recorded answer to an invitation. The API encodes
// "no answer yet" as the JSON literal false.
type ResponseStatus string

// UnmarshalJSON accepts a string, false or null
func (r *ResponseStatus) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("false")) || bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*r = ResponseStatus(s)
	return nil
}

// MarshalJSON writes false for an empty status
func (r ResponseStatus) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("false"), nil
	}
	return json.Marshal(string(r))
}

// Notification is a server-issued event surfaced in the drawer
type Notification struct {
	ID             string         `json:"_id" yaml:"id"`
	Header         string         `json:"header" yaml:"header"`
	Message        string         `json:"message" yaml:"message"`
	CreatedAt      time.Time      `json:"createdAt" yaml:"createdAt"`
	Read           bool           `json:"read" yaml:"read"`
	RequiresAction bool           `json:"requiresAction" yaml:"requiresAction"`
	IssueID        string         `json:"issueId,omitempty" yaml:"issueId,omitempty"`
	IssueName      string         `json:"issueName,omitempty" yaml:"issueName,omitempty"`
	ResponseStatus ResponseStatus `json:"responseStatus" yaml:"responseStatus,omitempty"`
}

// NotificationsResponse is returned by the notifications endpoint
type NotificationsResponse struct {
	Envelope
	Notifications []Notification `json:"notifications"`
}

// Notifications lists the user's notifications, newest first
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp NotificationsResponse
	if err := c.do(ctx, http.MethodGet, "/issues/getNotifications", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		return []Notification{}, nil
	}
	return resp.Notifications, nil
}

// MarkAllNotificationsAsRead flags every notification as read on the server
func (c *Client) MarkAllNotificationsAsRead(ctx context.Context) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPost, "/issues/markAllNotificationsAsRead", nil)
}

// RemoveNotification deletes one notification
func (c *Client) RemoveNotification(ctx context.Context, notificationID string) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPost, "/issues/removeNotificationById", map[string]string{
		"notificationId": notificationID,
	})
}

// ChangeInvitationStatus answers an invitation to an issue
func (c *Client) ChangeInvitationStatus(ctx context.Context, issueID, action string) (*Envelope, error) {
	return c.protectedCall(ctx, http.MethodPost, "/issues/changeInvitationStatus", map[string]string{
		"issueId": issueID,
		"action":  action,
	})
}

// Issue is an active decision problem the user takes part in
type Issue struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Creator     string `json:"creator" yaml:"creator"`
	Description string `json:"description" yaml:"description"`
	Model       string `json:"model" yaml:"model"`
	IsConsensus bool   `json:"isConsensus" yaml:"isConsensus"`
}

// IssuesResponse is returned by the active issues endpoint
type IssuesResponse struct {
	Envelope
	Issues []Issue `json:"issues"`
}

// ActiveIssues lists the issues the user currently participates in
func (c *Client) ActiveIssues(ctx context.Context) ([]Issue, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp IssuesResponse
	if err := c.do(ctx, http.MethodGet, "/issues/getAllActiveIssues", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Issues == nil {
		return []Issue{}, nil
	}
	return resp.Issues, nil
}
