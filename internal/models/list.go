package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// List is a kanban column within a project. Order controls column position;
// duplicates are allowed.
type List struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"not null"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Order     int       `json:"order" gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		l.ID = id
	}
	return nil
}
