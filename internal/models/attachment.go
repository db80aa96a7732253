package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Attachment holds file metadata only; the bytes live in the blob store under
// Filename.
type Attachment struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID       uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	Filename     string    `json:"filename" gorm:"not null"`
	OriginalName string    `json:"original_name" gorm:"not null"`
	MimeType     string    `json:"mime_type" gorm:"not null"`
	Size         int64     `json:"size" gorm:"not null"`
	UploadedByID uuid.UUID `json:"uploaded_by_id" gorm:"type:uuid;not null"`
	UploadedBy   *User     `json:"uploaded_by,omitempty" gorm:"foreignKey:UploadedByID"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		a.ID = id
	}
	return nil
}
