package services

import (
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

type RegistrationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RegisterService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct{}

func NewRegisterService() *RegisterServiceImpl {
	return &RegisterServiceImpl{}
}

// RegisterUser creates a member account. Roles are only escalated afterwards
// through the admin surface.
func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, Conflict("email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleMember,
		IsActive: true,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SeedAdmin ensures an admin account exists for the configured credentials.
// An existing user with the email is promoted instead of duplicated.
func SeedAdmin(db *gorm.DB, name, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != models.RoleAdmin {
			if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
				return nil, err
			}
			user.Role = models.RoleAdmin
		}
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user = models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
