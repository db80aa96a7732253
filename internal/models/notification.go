package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	NotificationProjectAssigned = "project_assigned"
	NotificationTaskStatus      = "task_status"
	NotificationGeneral         = "general"
)

// Notification is created only by server-side side effects and polled by
// clients.
type Notification struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Message   string    `json:"message" gorm:"not null"`
	Type      string    `json:"type" gorm:"not null;default:'general'"`
	Read      bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		n.ID = id
	}
	if n.Type == "" {
		n.Type = NotificationGeneral
	}
	return nil
}
