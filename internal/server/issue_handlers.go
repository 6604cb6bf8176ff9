package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionhub/decisionhub/internal/models"
)

// Invitation response labels shown in the drawer
const (
	responseAccepted = "Invitation accepted"
	responseDeclined = "Invitation declined"
)

// NotificationResponse is one entry of the notifications list
type NotificationResponse struct {
	ID             string      `json:"_id"`
	Header         string      `json:"header"`
	Message        string      `json:"message"`
	CreatedAt      time.Time   `json:"createdAt"`
	Read           bool        `json:"read"`
	RequiresAction bool        `json:"requiresAction"`
	IssueID        string      `json:"issueId,omitempty"`
	IssueName      string      `json:"issueName,omitempty"`
	ResponseStatus interface{} `json:"responseStatus"`
}

// IssueResponse is one active issue
type IssueResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Model       string `json:"model"`
	IsConsensus bool   `json:"isConsensus"`
}

// ChangeInvitationStatusRequest answers an invitation
type ChangeInvitationStatusRequest struct {
	IssueID string `json:"issueId" binding:"required"`
	Action  string `json:"action" binding:"required,oneof=accepted declined"`
}

// RemoveNotificationRequest removes one notification
type RemoveNotificationRequest struct {
	NotificationID string `json:"notificationId" binding:"required"`
}

func responseStatus(invitationStatus string) interface{} {
	switch invitationStatus {
	case models.InvitationAccepted:
		return responseAccepted
	case models.InvitationDeclined:
		return responseDeclined
	default:
		return false
	}
}

func (s *Server) getNotifications(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var notifications []models.Notification
	if err := s.db.Preload("Issue").
		Where("expert_id = ?", sessionData.UserID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list notifications")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Invitation answers live on the participation rows and are reported on
	// every notification about the issue
	var participations []models.Participation
	if err := s.db.Where("expert_id = ?", sessionData.UserID).Find(&participations).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list participations")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	statusByIssue := make(map[string]string, len(participations))
	for _, p := range participations {
		statusByIssue[p.IssueID] = p.InvitationStatus
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		entry := NotificationResponse{
			ID:             n.ID,
			Header:         "Invitation",
			Message:        n.Message,
			CreatedAt:      n.CreatedAt,
			Read:           n.Read,
			RequiresAction: n.RequiresAction,
			ResponseStatus: false,
		}
		if n.Issue != nil {
			entry.IssueID = n.Issue.ID
			entry.IssueName = n.Issue.Name
			if n.Type != models.NotificationInvitation {
				entry.Header = n.Issue.Name
			}
			entry.ResponseStatus = responseStatus(statusByIssue[n.Issue.ID])
		}
		response = append(response, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": response})
}

func (s *Server) markAllNotificationsAsRead(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	if err := s.db.Model(&models.Notification{}).
		Where("expert_id = ? AND read = ?", sessionData.UserID, false).
		Update("read", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark notifications as read")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Notifications marked as read"})
}

func (s *Server) removeNotificationByID(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req RemoveNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Notification ID is required")
		return
	}

	result := s.db.Where("id = ? AND expert_id = ?", req.NotificationID, sessionData.UserID).
		Delete(&models.Notification{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Str("notification_id", req.NotificationID).Msg("Failed to remove notification")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if result.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Notification not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Message removed"})
}

func (s *Server) changeInvitationStatus(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req ChangeInvitationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid action")
		return
	}

	var issue models.Issue
	if err := models.FindByID(s.db, req.IssueID, &issue); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Issue not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find issue")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Participation{}).
			Where("issue_id = ? AND expert_id = ?", issue.ID, sessionData.UserID).
			Update("invitation_status", req.Action)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.Notification{}).
			Where("issue_id = ? AND expert_id = ? AND type = ?", issue.ID, sessionData.UserID, models.NotificationInvitation).
			Update("read", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "No participation found for the user in this issue")
			return
		}
		s.logger.Error().Err(err).Str("issue_id", issue.ID).Msg("Failed to change invitation status")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.logger.Info().
		Str("issue_id", issue.ID).
		Str("user_id", sessionData.UserID).
		Str("action", req.Action).
		Msg("Invitation answered")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"msg":     fmt.Sprintf("Invitation to issue %s %s", issue.Name, req.Action),
	})
}

func (s *Server) getAllActiveIssues(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var participations []models.Participation
	if err := s.db.Preload("Issue.Creator").
		Joins("JOIN issues ON issues.id = participations.issue_id").
		Where("participations.expert_id = ? AND participations.invitation_status = ? AND issues.active = ?",
			sessionData.UserID, models.InvitationAccepted, true).
		Order("issues.created_at DESC").
		Find(&participations).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active issues")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	issues := make([]IssueResponse, 0, len(participations))
	for _, p := range participations {
		entry := IssueResponse{
			ID:          p.Issue.ID,
			Name:        p.Issue.Name,
			Description: p.Issue.Description,
			Model:       p.Issue.Model,
			IsConsensus: p.Issue.IsConsensus,
		}
		if p.Issue.Creator != nil {
			entry.Creator = p.Issue.Creator.Name
		}
		issues = append(issues, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "issues": issues})
}
