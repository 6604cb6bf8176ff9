package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// NewToken returns a random single-use token for confirmation links
func NewToken() string {
	return ulid.Make().String()
}

// Invitation states of a Participation
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Notification types
const (
	NotificationInvitation = "invitation"
	NotificationMessage    = "message"
)

// User is an expert account
type User struct {
	BaseModel
	Name              string    `json:"name" gorm:"not null"`
	University        string    `json:"university" gorm:"not null"`
	Email             string    `json:"email" gorm:"unique;not null"`
	PasswordHash      string    `json:"-" gorm:"not null"`
	Role              string    `json:"role" gorm:"not null;default:user"`
	IsAdmin           bool      `json:"is_admin" gorm:"not null;default:false"`
	AccountConfirm    bool      `json:"account_confirm" gorm:"not null;default:false"`
	TokenConfirm      string    `json:"-" gorm:"index"`
	PendingEmail      string    `json:"-"`
	EmailTokenConfirm string    `json:"-" gorm:"index"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdministrator reports whether the user may use the admin panel
func (u *User) IsAdministrator() bool {
	return u.Role == "admin" || u.IsAdmin
}

// Issue is a decision problem experts are invited to
type Issue struct {
	BaseModel
	Name        string `json:"name" gorm:"unique;not null"`
	CreatorID   string `json:"creator_id" gorm:"not null"`
	Description string `json:"description"`
	Model       string `json:"model"`
	IsConsensus bool   `json:"is_consensus" gorm:"not null;default:false"`
	Active      bool   `json:"active" gorm:"not null;default:true"`

	// Relationships
	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatorID;references:ID;constraint:OnDelete:CASCADE"`
}

// Participation links an expert to an issue
type Participation struct {
	BaseModel
	IssueID          string `json:"issue_id" gorm:"not null;index"`
	ExpertID         string `json:"expert_id" gorm:"not null;index"`
	InvitationStatus string `json:"invitation_status" gorm:"not null;default:pending"`

	// Relationships
	Issue Issue `json:"issue,omitzero" gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

// Notification is a message addressed to one expert
type Notification struct {
	BaseModel
	ExpertID       string `json:"expert_id" gorm:"not null;index"`
	IssueID        string `json:"issue_id" gorm:"index"`
	Type           string `json:"type" gorm:"not null"`
	Message        string `json:"message" gorm:"not null"`
	RequiresAction bool   `json:"requires_action" gorm:"not null;default:false"`
	Read           bool   `json:"read" gorm:"not null;default:false"`

	// Relationships
	Issue *Issue `json:"issue,omitempty" gorm:"foreignKey:IssueID;references:ID;constraint:OnDelete:SET NULL"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Issue{}, &Participation{}, &Notification{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
