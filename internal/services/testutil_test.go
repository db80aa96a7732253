package services_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.List{},
		&models.Task{},
		&models.Comment{},
		&models.Attachment{},
		&models.TimeLog{},
		&models.Notification{},
		&models.Token{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createProject(t *testing.T, db *gorm.DB, owner *models.User, members ...*models.User) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:    "Project " + uuid.Must(uuid.NewV4()).String()[:8],
		OwnerID: owner.ID,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	for _, m := range members {
		if err := db.Model(project).Association("Members").Append(m); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}
	}
	return project
}

func createList(t *testing.T, db *gorm.DB, project *models.Project) *models.List {
	t.Helper()

	list := &models.List{Name: "Backlog", ProjectID: project.ID}
	if err := db.Create(list).Error; err != nil {
		t.Fatalf("failed to create list: %v", err)
	}
	return list
}

func createTask(t *testing.T, db *gorm.DB, list *models.List, name string) *models.Task {
	t.Helper()

	task := &models.Task{Name: name, ListID: list.ID}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task %s: %v", name, err)
	}
	return task
}

func countNotifications(t *testing.T, db *gorm.DB, userID uuid.UUID, notificationType string) int64 {
	t.Helper()

	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, notificationType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	return count
}

func newTaskService(db *gorm.DB) services.TaskService {
	authz := services.NewAuthorizationService(db)
	return services.NewTaskService(authz, services.NewNotificationService(nil))
}

func newProjectService(db *gorm.DB) services.ProjectService {
	authz := services.NewAuthorizationService(db)
	return services.NewProjectService(authz, services.NewNotificationService(nil))
}
