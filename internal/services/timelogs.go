package services

import (
	"math"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

// TimeLogService tracks time per task. One open log per (task, user) is an
// enforced invariant: a second start without a stop is rejected.
type TimeLogService interface {
	GetLogsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.TimeLog, error)
	StartLog(db *gorm.DB, actor *models.User, taskID uuid.UUID, note string) (*models.TimeLog, error)
	StopLog(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.TimeLog, error)
}

type TimeLogServiceImpl struct {
	authz AuthorizationService
	// now is swappable for deterministic duration tests.
	now func() time.Time
}

func NewTimeLogService(authz AuthorizationService) *TimeLogServiceImpl {
	return &TimeLogServiceImpl{authz: authz, now: time.Now}
}

func (s *TimeLogServiceImpl) GetLogsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.TimeLog, error) {
	if err := s.authorizeTaskRead(db, actor, taskID); err != nil {
		return nil, err
	}

	var logs []models.TimeLog
	err := db.Preload("User").Where("task_id = ?", taskID).Order("start_time asc").Find(&logs).Error
	return logs, err
}

func (s *TimeLogServiceImpl) StartLog(db *gorm.DB, actor *models.User, taskID uuid.UUID, note string) (*models.TimeLog, error) {
	if err := s.authorizeTaskRead(db, actor, taskID); err != nil {
		return nil, err
	}

	var open int64
	err := db.Model(&models.TimeLog{}).
		Where("task_id = ? AND user_id = ? AND end_time IS NULL", taskID, actor.ID).
		Count(&open).Error
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, Conflict("an open time log already exists for this task")
	}

	log := models.TimeLog{
		TaskID:    taskID,
		UserID:    actor.ID,
		StartTime: s.now(),
		Note:      note,
	}
	if err := db.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// StopLog closes the log and derives its duration in whole minutes, rounded.
func (s *TimeLogServiceImpl) StopLog(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.TimeLog, error) {
	var log models.TimeLog
	if err := db.Where("id = ?", id).First(&log).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if log.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, Denied("only the log owner or an admin can stop a time log")
	}
	if !log.IsOpen() {
		return nil, Conflict("time log is already stopped")
	}

	end := s.now()
	duration := DurationMinutes(log.StartTime, end)

	updates := map[string]interface{}{
		"end_time": end,
		"duration": duration,
	}
	if err := db.Model(&log).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.EndTime = &end
	log.Duration = duration
	return &log, nil
}

// DurationMinutes rounds the elapsed time to whole minutes.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

func (s *TimeLogServiceImpl) authorizeTaskRead(db *gorm.DB, actor *models.User, taskID uuid.UUID) error {
	task, err := loadTask(db, taskID)
	if err != nil {
		return err
	}
	project, err := projectForList(db, task.ListID)
	if err != nil {
		return err
	}
	return s.authz.CanReadProject(actor, project).Err()
}
