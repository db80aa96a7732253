package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type ListInput struct {
	Name      string
	ProjectID uuid.UUID
	Order     *int
}

type ListPatch struct {
	Name  *string
	Order *int
}

type ListService interface {
	GetListsByProject(db *gorm.DB, actor *models.User, projectID uuid.UUID) ([]models.List, error)
	CreateList(db *gorm.DB, actor *models.User, input ListInput) (*models.List, error)
	UpdateList(db *gorm.DB, actor *models.User, id uuid.UUID, patch ListPatch) (*models.List, error)
	DeleteList(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type ListServiceImpl struct {
	authz AuthorizationService
}

func NewListService(authz AuthorizationService) *ListServiceImpl {
	return &ListServiceImpl{authz: authz}
}

func (s *ListServiceImpl) GetListsByProject(db *gorm.DB, actor *models.User, projectID uuid.UUID) ([]models.List, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanReadProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	var lists []models.List
	err = db.Where("project_id = ?", projectID).Order("position asc").Find(&lists).Error
	return lists, err
}

func (s *ListServiceImpl) CreateList(db *gorm.DB, actor *models.User, input ListInput) (*models.List, error) {
	if input.Name == "" {
		return nil, Invalid("list name is required")
	}

	project, err := loadProject(db, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanUpdateProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	list := models.List{
		Name:      input.Name,
		ProjectID: input.ProjectID,
	}
	if input.Order != nil {
		list.Order = *input.Order
	}

	if err := db.Create(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *ListServiceImpl) UpdateList(db *gorm.DB, actor *models.User, id uuid.UUID, patch ListPatch) (*models.List, error) {
	list, err := loadList(db, id)
	if err != nil {
		return nil, err
	}

	project, err := loadProject(db, list.ProjectID)
	if err != nil {
		return nil, err
	}
	if d := s.authz.CanUpdateProject(actor, project); !d.Allowed {
		return nil, d.Err()
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, Invalid("list name must not be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Order != nil {
		updates["position"] = *patch.Order
	}

	if len(updates) > 0 {
		if err := db.Model(list).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return loadList(db, id)
}

// DeleteList removes the list and everything under it.
func (s *ListServiceImpl) DeleteList(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	list, err := loadList(db, id)
	if err != nil {
		return err
	}

	project, err := loadProject(db, list.ProjectID)
	if err != nil {
		return err
	}
	if d := s.authz.CanUpdateProject(actor, project); !d.Allowed {
		return d.Err()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uuid.UUID
		if err := tx.Model(&models.Task{}).Where("list_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if err := deleteTaskChildren(tx, taskIDs); err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.List{}, "id = ?", id).Error
	})
}

func loadList(db *gorm.DB, id uuid.UUID) (*models.List, error) {
	var list models.List
	if err := db.Where("id = ?", id).First(&list).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &list, nil
}
