package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

// ProjectStats are derived counts over the project's current tasks and time
// logs. totalTasks covers every status; only done and inprogress get their
// own counters.
type ProjectStats struct {
	TotalTasks      int   `json:"totalTasks"`
	CompletedTasks  int   `json:"completedTasks"`
	InProgressTasks int   `json:"inProgressTasks"`
	TotalTime       int64 `json:"totalTime"`
}

type StatsService interface {
	ComputeProjectStats(db *gorm.DB, actor *models.User, projectID uuid.UUID) (*ProjectStats, error)
}

type StatsServiceImpl struct {
	authz AuthorizationService
}

func NewStatsService(authz AuthorizationService) *StatsServiceImpl {
	return &StatsServiceImpl{authz: authz}
}

// ComputeProjectStats recomputes from live rows on every call; there is no
// caching layer in front of it.
func (s *StatsServiceImpl) ComputeProjectStats(db *gorm.DB, actor *models.User, projectID uuid.UUID) (*ProjectStats, error) {
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

	stats := &ProjectStats{}
	if len(listIDs) == 0 {
		return stats, nil
	}

	var tasks []models.Task
	if err := db.Select("id", "status").Where("list_id IN ?", listIDs).Find(&tasks).Error; err != nil {
		return nil, err
	}

	taskIDs := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
		switch task.Status {
		case models.StatusDone:
			stats.CompletedTasks++
		case models.StatusInProgress:
			stats.InProgressTasks++
		}
	}
	stats.TotalTasks = len(tasks)

	if len(taskIDs) > 0 {
		var total *int64
		err := db.Model(&models.TimeLog{}).
			Where("task_id IN ?", taskIDs).
			Select("SUM(duration)").
			Scan(&total).Error
		if err != nil {
			return nil, err
		}
		if total != nil {
			stats.TotalTime = *total
		}
	}

	return stats, nil
}
