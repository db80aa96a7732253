package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type CommentService interface {
	GetCommentsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.Comment, error)
	CreateComment(db *gorm.DB, actor *models.User, taskID uuid.UUID, body string) (*models.Comment, error)
	DeleteComment(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type CommentServiceImpl struct {
	authz AuthorizationService
}

func NewCommentService(authz AuthorizationService) *CommentServiceImpl {
	return &CommentServiceImpl{authz: authz}
}

func (s *CommentServiceImpl) GetCommentsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.Comment, error) {
	if err := s.authorizeTaskRead(db, actor, taskID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := db.Preload("Author").Where("task_id = ?", taskID).Order("created_at asc").Find(&comments).Error
	return comments, err
}

func (s *CommentServiceImpl) CreateComment(db *gorm.DB, actor *models.User, taskID uuid.UUID, body string) (*models.Comment, error) {
	if body == "" {
		return nil, Invalid("comment body is required")
	}
	if err := s.authorizeTaskRead(db, actor, taskID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Body:     body,
		TaskID:   taskID,
		AuthorID: actor.ID,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentServiceImpl) DeleteComment(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	var comment models.Comment
	if err := db.Where("id = ?", id).First(&comment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	if d := s.authz.CanDeleteComment(actor, &comment); !d.Allowed {
		return d.Err()
	}
	return db.Delete(&comment).Error
}

func (s *CommentServiceImpl) authorizeTaskRead(db *gorm.DB, actor *models.User, taskID uuid.UUID) error {
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
