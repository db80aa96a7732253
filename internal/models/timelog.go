package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TimeLog tracks time spent on a task. A log is open while EndTime is nil;
// at most one open log may exist per (task, user).
type TimeLog struct {
	ID        uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID    uuid.UUID  `json:"task_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int        `json:"duration"`
	Note      string     `json:"note"`
	CreatedAt time.Time  `json:"created_at"`
}

func (l *TimeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		l.ID = id
	}
	return nil
}

func (l *TimeLog) IsOpen() bool {
	return l.EndTime == nil
}
