package server

import (
	"gorm.io/gorm"

	"github.com/decisionhub/decisionhub/internal/auth"
	"github.com/decisionhub/decisionhub/internal/models"
)

// Demo credentials created by seedDemo
const (
	DemoEmail         = "a@b.com"
	DemoPassword      = "abc123"
	DemoAdminEmail    = "admin@decisionhub.dev"
	DemoAdminPassword = "admin123"
)

// Demo issue names
const (
	DemoPendingIssue = "Renewable Energy"
	DemoActiveIssue  = "Campus Mobility"
)

// seedDemo creates a confirmed expert, an admin, one pending invitation and
// one accepted issue. It does nothing when the demo expert already exists.
func (s *Server) seedDemo() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", DemoEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	expertHash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	adminHash, err := auth.HashPassword(DemoAdminPassword)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		expert := &models.User{
			Name:           "Ana",
			University:     "Universidad de Jaen",
			Email:          DemoEmail,
			PasswordHash:   expertHash,
			Role:           "user",
			AccountConfirm: true,
		}
		admin := &models.User{
			Name:           "Admin",
			University:     "Universidad de Granada",
			Email:          DemoAdminEmail,
			PasswordHash:   adminHash,
			Role:           "admin",
			IsAdmin:        true,
			AccountConfirm: true,
		}
		if err := tx.Create(expert).Error; err != nil {
			return err
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		pending := &models.Issue{
			Name:        DemoPendingIssue,
			CreatorID:   admin.ID,
			Description: "Rank energy sources for the new campus",
			Model:       "Herrera Viedma CRP",
			IsConsensus: true,
			Active:      true,
		}
		active := &models.Issue{
			Name:        DemoActiveIssue,
			CreatorID:   admin.ID,
			Description: "Choose the preferred commuting plan",
			Model:       "TOPSIS",
			Active:      true,
		}
		if err := tx.Create(pending).Error; err != nil {
			return err
		}
		if err := tx.Create(active).Error; err != nil {
			return err
		}

		participations := []models.Participation{
			{IssueID: pending.ID, ExpertID: expert.ID, InvitationStatus: models.InvitationPending},
			{IssueID: active.ID, ExpertID: expert.ID, InvitationStatus: models.InvitationAccepted},
			{IssueID: active.ID, ExpertID: admin.ID, InvitationStatus: models.InvitationAccepted},
		}
		if err := tx.Create(&participations).Error; err != nil {
			return err
		}

		notifications := []models.Notification{
			{
				ExpertID: expert.ID,
				IssueID:  active.ID,
				Type:     models.NotificationMessage,
				Message:  "The first evaluation round has started",
			},
			{
				ExpertID:       expert.ID,
				IssueID:        pending.ID,
				Type:           models.NotificationInvitation,
				Message:        "You have been invited by Admin to participate in " + DemoPendingIssue,
				RequiresAction: true,
			},
		}
		return tx.Create(&notifications).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("email", DemoEmail).Str("admin_email", DemoAdminEmail).Msg("Seeded demo data")
	return nil
}
