package services

import (
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type ProfilePatch struct {
	Name     *string
	Password *string
}

// UserService covers the self-service profile surface plus the admin-only
// user management operations.
type UserService interface {
	ListUsers(db *gorm.DB) ([]models.PublicUser, error)
	ListUsersFull(db *gorm.DB) ([]models.User, error)
	GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	UpdateProfile(db *gorm.DB, actor *models.User, patch ProfilePatch) (*models.User, error)
	UpdateRole(db *gorm.DB, id uuid.UUID, role string) (*models.User, error)
	DeleteUser(db *gorm.DB, id uuid.UUID) error
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

// ListUsers returns the reduced member-picker shape, never credential hashes.
func (s *UserServiceImpl) ListUsers(db *gorm.DB) ([]models.PublicUser, error) {
	var users []models.User
	if err := db.Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

func (s *UserServiceImpl) ListUsersFull(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Order("created_at asc").Find(&users).Error
	return users, err
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) UpdateProfile(db *gorm.DB, actor *models.User, patch ProfilePatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, Invalid("name must not be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Password != nil {
		if len(*patch.Password) < 8 {
			return nil, Invalid("password must be at least 8 characters")
		}
		hashed, err := HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", actor.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetUserByID(db, actor.ID)
}

// UpdateRole changes a user's role. Only reachable through the admin surface.
func (s *UserServiceImpl) UpdateRole(db *gorm.DB, id uuid.UUID, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, Invalid(fmt.Sprintf("invalid role %q", role))
	}

	user, err := s.GetUserByID(db, id)
	if err != nil {
		return nil, err
	}

	if err := db.Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id uuid.UUID) error {
	user, err := s.GetUserByID(db, id)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// Owned projects go first: projects.owner_id references the user
		// without a cascade, and their contents reference the user too.
		var owned []models.Project
		if err := tx.Preload("Members").Where("owner_id = ?", id).Find(&owned).Error; err != nil {
			return err
		}
		for i := range owned {
			if err := CascadeDeleteProject(tx, &owned[i]); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Token{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_members WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return err
		}
		// Rows the user authored in other people's projects still reference
		// them and must not survive the delete.
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("uploaded_by_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.TimeLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}
