package services

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type TaskInput struct {
	Name        string
	Description string
	ListID      uuid.UUID
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	Priority    string
	Status      string
	ParentID    *uuid.UUID
}

// TaskPatch is a partial update. A nil field keeps the current value; the
// Clear flags model an explicit JSON null for the clearable fields.
type TaskPatch struct {
	Name          *string
	Description   *string
	ListID        *uuid.UUID
	AssigneeID    *uuid.UUID
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
	Priority      *string
	Status        *string
}

// TaskService validates and applies task mutations. A status change performed
// by a non-admin actor notifies every admin; admins' own changes are silent.
type TaskService interface {
	CreateTask(db *gorm.DB, actor *models.User, input TaskInput) (*models.Task, error)
	GetTaskByID(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error)
	GetTasksByProject(db *gorm.DB, actor *models.User, projectID uuid.UUID) ([]models.Task, error)
	GetTasksByUser(db *gorm.DB, actor *models.User, userID uuid.UUID) ([]models.Task, error)
	ApplyTaskUpdate(db *gorm.DB, actor *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error)
	DeleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type TaskServiceImpl struct {
	authz    AuthorizationService
	notifier NotificationService
}

func NewTaskService(authz AuthorizationService, notifier NotificationService) *TaskServiceImpl {
	return &TaskServiceImpl{authz: authz, notifier: notifier}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, actor *models.User, input TaskInput) (*models.Task, error) {
	if input.Name == "" {
		return nil, Invalid("task name is required")
	}
	if input.Status != "" && !models.IsValidStatus(input.Status) {
		return nil, Invalid(fmt.Sprintf("invalid status %q", input.Status))
	}
	if input.Priority != "" && !models.IsValidPriority(input.Priority) {
		return nil, Invalid(fmt.Sprintf("invalid priority %q", input.Priority))
	}

	project, err := projectForList(db, input.ListID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanCreateTask(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	if input.AssigneeID != nil {
		if err := ensureUserExists(db, *input.AssigneeID); err != nil {
			return nil, err
		}
	}
	if input.ParentID != nil {
		if err := ensureTaskExists(db, *input.ParentID); err != nil {
			return nil, err
		}
	}

	task := models.Task{
		Name:        input.Name,
		Description: input.Description,
		ListID:      input.ListID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      input.Status,
		ParentID:    input.ParentID,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return loadTask(db, task.ID)
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	project, err := projectForList(db, task.ListID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanReadProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTasksByProject(db *gorm.DB, actor *models.User, projectID uuid.UUID) ([]models.Task, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanReadProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	var listIDs []uuid.UUID
	if err := db.Model(&models.List{}).Where("project_id = ?", projectID).Pluck("id", &listIDs).Error; err != nil {
		return nil, err
	}
	if len(listIDs) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	err = db.Preload("Assignee").Preload("Subtasks").
		Where("list_id IN ?", listIDs).
		Order("created_at asc").
		Find(&tasks).Error
	return tasks, err
}

// GetTasksByUser lists a user's assigned tasks. Only the user themselves or
// an admin may read the list.
func (s *TaskServiceImpl) GetTasksByUser(db *gorm.DB, actor *models.User, userID uuid.UUID) ([]models.Task, error) {
	if actor.ID != userID && actor.Role != models.RoleAdmin {
		return nil, Denied("cannot view another user's tasks")
	}

	var tasks []models.Task
	err := db.Where("assignee_id = ?", userID).Order("created_at asc").Find(&tasks).Error
	return tasks, err
}

// ApplyTaskUpdate merges the patch into the task: load, authorize, validate,
// persist, then fan out the status-change notification when a non-admin actor
// moved the status.
func (s *TaskServiceImpl) ApplyTaskUpdate(db *gorm.DB, actor *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanUpdateTask(actor, task); !d.Allowed {
		return nil, d.Err()
	}

	updates := map[string]interface{}{}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, Invalid("task name must not be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ListID != nil {
		if _, err := projectForList(db, *patch.ListID); err != nil {
			return nil, err
		}
		updates["list_id"] = *patch.ListID
	}
	if patch.ClearAssignee {
		updates["assignee_id"] = nil
	} else if patch.AssigneeID != nil {
		if err := ensureUserExists(db, *patch.AssigneeID); err != nil {
			return nil, err
		}
		updates["assignee_id"] = *patch.AssigneeID
	}
	if patch.ClearDueDate {
		updates["due_date"] = nil
	} else if patch.DueDate != nil {
		updates["due_date"] = *patch.DueDate
	}
	if patch.Priority != nil {
		if !models.IsValidPriority(*patch.Priority) {
			return nil, Invalid(fmt.Sprintf("invalid priority %q", *patch.Priority))
		}
		updates["priority"] = *patch.Priority
	}

	oldStatus := task.Status
	statusChanged := false
	if patch.Status != nil {
		if !models.IsValidStatus(*patch.Status) {
			return nil, Invalid(fmt.Sprintf("invalid status %q", *patch.Status))
		}
		statusChanged = *patch.Status != oldStatus
		updates["status"] = *patch.Status
	}

	if len(updates) > 0 {
		// Update through a bare model: task carries the preloaded assignee,
		// and saving through it would write the old assignee_id back over an
		// explicit clear.
		if err := db.Model(&models.Task{ID: task.ID}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	updated, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}

	if statusChanged && actor.Role != models.RoleAdmin {
		s.notifyStatusChange(db, actor, updated, oldStatus, updated.Status)
	}

	return updated, nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	task, err := loadTask(db, id)
	if err != nil {
		return err
	}
	if d := s.authz.CanDeleteTask(actor, task); !d.Allowed {
		return d.Err()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := deleteTaskChildren(tx, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}

func (s *TaskServiceImpl) notifyStatusChange(db *gorm.DB, actor *models.User, task *models.Task, oldStatus, newStatus string) {
	projectName := "unknown project"
	if project, err := projectForList(db, task.ListID); err == nil {
		projectName = project.Name
	}

	message := fmt.Sprintf("%s moved task %q in project %q from %s to %s",
		actor.Name, task.Name, projectName, oldStatus, newStatus)

	if err := s.notifier.NotifyAdmins(db, message, models.NotificationTaskStatus); err != nil {
		logNotifyFailure(actor.ID, err)
	}
}

func loadTask(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Assignee").Preload("Subtasks").Where("id = ?", id).First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// projectForList resolves a list to its owning project, members populated for
// policy checks.
func projectForList(db *gorm.DB, listID uuid.UUID) (*models.Project, error) {
	var list models.List
	if err := db.Where("id = ?", listID).First(&list).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loadProject(db, list.ProjectID)
}

func ensureUserExists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return Invalid("unknown user id")
	}
	return nil
}

func ensureTaskExists(db *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return Invalid("unknown task id")
	}
	return nil
}
