package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	StatusTodo         = "todo"
	StatusInProgress   = "inprogress"
	StatusInReview     = "in_review"
	StatusAwaitRelease = "await_release"
	StatusDone         = "done"
	StatusReopened     = "reopened"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskStatuses is the canonical status set. Any status may move to any other
// status by direct replacement; there is no transition graph.
var TaskStatuses = []string{
	StatusTodo, StatusInProgress, StatusInReview,
	StatusAwaitRelease, StatusDone, StatusReopened,
}

func IsValidStatus(status string) bool {
	for _, s := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	ListID      uuid.UUID  `json:"list_id" gorm:"type:uuid;not null;index"`
	AssigneeID  *uuid.UUID `json:"assignee_id" gorm:"type:uuid;index"`
	Assignee    *User      `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium'"`
	Status      string     `json:"status" gorm:"not null;default:'todo'"`
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	Subtasks    []Task     `json:"subtasks,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}
