package services

import (
	"log"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/worker"
)

// EmailQueue is the worker queue notifications are mirrored to for email
// delivery.
const EmailQueue = "email_notifications"

// NotificationService creates notification records as side effects of
// mutations. Dispatch is best-effort: a failure is logged and never rolls
// back or fails the triggering request.
type NotificationService interface {
	Notify(db *gorm.DB, userID uuid.UUID, message, notificationType string) error
	NotifyAdmins(db *gorm.DB, message, notificationType string) error
	ListForUser(db *gorm.DB, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(db *gorm.DB, id, userID uuid.UUID) (*models.Notification, error)
}

type NotificationServiceImpl struct {
	jobs *worker.JobQueue
}

// NewNotificationService builds the dispatcher. jobs may be nil; notifications
// are then persisted without the email mirror.
func NewNotificationService(jobs *worker.JobQueue) *NotificationServiceImpl {
	return &NotificationServiceImpl{jobs: jobs}
}

func (s *NotificationServiceImpl) Notify(db *gorm.DB, userID uuid.UUID, message, notificationType string) error {
	notification := models.Notification{
		UserID:  userID,
		Message: message,
		Type:    notificationType,
	}
	if err := db.Create(&notification).Error; err != nil {
		return err
	}

	if s.jobs != nil {
		payload := map[string]interface{}{
			"user_id": userID.String(),
			"message": message,
			"type":    notificationType,
		}
		if err := s.jobs.Enqueue(EmailQueue, worker.JobTypeEmailNotification, payload); err != nil {
			log.Printf("failed to enqueue email notification for user %s: %v", userID, err)
		}
	}

	return nil
}

// NotifyAdmins creates one notification per user with the admin role.
func (s *NotificationServiceImpl) NotifyAdmins(db *gorm.DB, message, notificationType string) error {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		return err
	}

	for _, admin := range admins {
		if err := s.Notify(db, admin.ID, message, notificationType); err != nil {
			return err
		}
	}
	return nil
}

// logNotifyFailure records a failed dispatch without failing the triggering
// mutation.
func logNotifyFailure(userID uuid.UUID, err error) {
	log.Printf("notification dispatch failed for user %s: %v", userID, err)
}

func (s *NotificationServiceImpl) ListForUser(db *gorm.DB, userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&notifications).Error
	return notifications, err
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, id, userID uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	notification.Read = true
	if err := db.Model(&notification).Update("read", true).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}
