package services

import (
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type ProjectInput struct {
	Name        string
	Description string
	MemberIDs   []uuid.UUID
}

type ProjectPatch struct {
	Name        *string
	Description *string
	MemberIDs   *[]uuid.UUID
}

// ProjectService owns project CRUD and the member-assignment notification
// side effect: every user newly added to the member set gets exactly one
// project_assigned notification.
type ProjectService interface {
	ListProjects(db *gorm.DB, actor *models.User) ([]models.Project, error)
	ListAllProjects(db *gorm.DB) ([]models.Project, error)
	GetProject(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Project, error)
	CreateProject(db *gorm.DB, actor *models.User, input ProjectInput) (*models.Project, error)
	UpdateProject(db *gorm.DB, actor *models.User, id uuid.UUID, patch ProjectPatch) (*models.Project, error)
	ReplaceMembers(db *gorm.DB, id uuid.UUID, memberIDs []uuid.UUID) (*models.Project, error)
	DeleteProject(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type ProjectServiceImpl struct {
	authz    AuthorizationService
	notifier NotificationService
}

func NewProjectService(authz AuthorizationService, notifier NotificationService) *ProjectServiceImpl {
	return &ProjectServiceImpl{authz: authz, notifier: notifier}
}

// ListProjects returns every project for admins, otherwise the projects the
// actor owns or belongs to.
func (s *ProjectServiceImpl) ListProjects(db *gorm.DB, actor *models.User) ([]models.Project, error) {
	if s.authz.CanListAllProjects(actor) {
		return s.ListAllProjects(db)
	}

	var projects []models.Project
	err := db.
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id").
		Where("projects.owner_id = ? OR pm.user_id = ?", actor.ID, actor.ID).
		Group("projects.id").
		Find(&projects).Error
	return projects, err
}

func (s *ProjectServiceImpl) ListAllProjects(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	err := db.Preload("Owner").Preload("Members").Find(&projects).Error
	return projects, err
}

func (s *ProjectServiceImpl) GetProject(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Project, error) {
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanReadProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}
	return project, nil
}

func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, actor *models.User, input ProjectInput) (*models.Project, error) {
	if d := s.authz.CanCreateProject(actor); !d.Allowed {
		return nil, d.Err()
	}
	if input.Name == "" {
		return nil, Invalid("project name is required")
	}

	members, err := resolveUsers(db, input.MemberIDs)
	if err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     actor.ID,
		Members:     members,
	}

	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}

	s.notifyAddedMembers(db, &project, nil, project.MemberIDs())

	return loadProject(db, project.ID)
}

func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, actor *models.User, id uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanUpdateProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, Invalid("project name must not be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) > 0 {
		if err := db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if patch.MemberIDs != nil {
		if err := s.replaceMembers(db, project, *patch.MemberIDs); err != nil {
			return nil, err
		}
	}

	return loadProject(db, id)
}

// ReplaceMembers swaps the full member set. Authorization is the caller's
// responsibility (admin surface).
func (s *ProjectServiceImpl) ReplaceMembers(db *gorm.DB, id uuid.UUID, memberIDs []uuid.UUID) (*models.Project, error) {
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if err := s.replaceMembers(db, project, memberIDs); err != nil {
		return nil, err
	}
	return loadProject(db, id)
}

func (s *ProjectServiceImpl) replaceMembers(db *gorm.DB, project *models.Project, memberIDs []uuid.UUID) error {
	// A repeated id in the request must not produce a second notification.
	memberIDs = dedupeIDs(memberIDs)

	members, err := resolveUsers(db, memberIDs)
	if err != nil {
		return err
	}

	previous := project.MemberIDs()

	if err := db.Model(project).Association("Members").Replace(members); err != nil {
		return err
	}

	added := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if !containsID(previous, id) {
			added = append(added, id)
		}
	}
	s.notifyAddedMembers(db, project, previous, added)

	return nil
}

func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	project, err := loadProject(db, id)
	if err != nil {
		return err
	}
	if d := s.authz.CanDeleteProject(actor, project); !d.Allowed {
		return d.Err()
	}
	return CascadeDeleteProject(db, project)
}

// CascadeDeleteProject removes the project together with its lists, tasks and
// task children so nothing is left dangling.
func CascadeDeleteProject(db *gorm.DB, project *models.Project) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var listIDs []uuid.UUID
		if err := tx.Model(&models.List{}).Where("project_id = ?", project.ID).Pluck("id", &listIDs).Error; err != nil {
			return err
		}

		if len(listIDs) > 0 {
			var taskIDs []uuid.UUID
			if err := tx.Model(&models.Task{}).Where("list_id IN ?", listIDs).Pluck("id", &taskIDs).Error; err != nil {
				return err
			}
			if err := deleteTaskChildren(tx, taskIDs); err != nil {
				return err
			}
			if err := tx.Where("list_id IN ?", listIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.List{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(project).Association("Members").Clear(); err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}

func deleteTaskChildren(tx *gorm.DB, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Attachment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TimeLog{}).Error; err != nil {
		return err
	}
	// Subtasks pointing at a deleted parent get detached, not deleted.
	return tx.Model(&models.Task{}).Where("parent_id IN ?", taskIDs).Update("parent_id", nil).Error
}

func (s *ProjectServiceImpl) notifyAddedMembers(db *gorm.DB, project *models.Project, previous, added []uuid.UUID) {
	for _, userID := range added {
		if containsID(previous, userID) {
			continue
		}
		message := fmt.Sprintf("You have been added to project %q", project.Name)
		if err := s.notifier.Notify(db, userID, message, models.NotificationProjectAssigned); err != nil {
			// Best-effort side effect, the mutation itself already succeeded.
			logNotifyFailure(userID, err)
		}
	}
}

func loadProject(db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.Preload("Owner").Preload("Members").Where("id = ?", id).First(&project).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func resolveUsers(db *gorm.DB, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) != len(dedupeIDs(ids)) {
		return nil, Invalid("unknown member id")
	}
	return users, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
