package services

import (
	"io"
	"log"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/storage"
)

type AttachmentUpload struct {
	TaskID       uuid.UUID
	OriginalName string
	MimeType     string
	Size         int64
	Data         io.Reader
}

type AttachmentService interface {
	GetAttachmentsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.Attachment, error)
	UploadAttachment(db *gorm.DB, actor *models.User, upload AttachmentUpload) (*models.Attachment, error)
	GetAttachmentPath(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Attachment, string, error)
	DeleteAttachment(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type AttachmentServiceImpl struct {
	authz AuthorizationService
	blobs storage.BlobStore
}

func NewAttachmentService(authz AuthorizationService, blobs storage.BlobStore) *AttachmentServiceImpl {
	return &AttachmentServiceImpl{authz: authz, blobs: blobs}
}

func (s *AttachmentServiceImpl) GetAttachmentsByTask(db *gorm.DB, actor *models.User, taskID uuid.UUID) ([]models.Attachment, error) {
	if err := s.authorizeTaskRead(db, actor, taskID); err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	err := db.Preload("UploadedBy").Where("task_id = ?", taskID).Order("created_at asc").Find(&attachments).Error
	return attachments, err
}

func (s *AttachmentServiceImpl) UploadAttachment(db *gorm.DB, actor *models.User, upload AttachmentUpload) (*models.Attachment, error) {
	if upload.OriginalName == "" {
		return nil, Invalid("file name is required")
	}
	if err := s.authorizeTaskRead(db, actor, upload.TaskID); err != nil {
		return nil, err
	}

	storedName, err := s.blobs.Store(upload.Data, upload.OriginalName)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		TaskID:       upload.TaskID,
		Filename:     storedName,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		Size:         upload.Size,
		UploadedByID: actor.ID,
	}

	if err := db.Create(&attachment).Error; err != nil {
		// The metadata row failed; drop the orphaned blob.
		if cleanupErr := s.blobs.Delete(storedName); cleanupErr != nil {
			log.Printf("failed to clean up blob %s: %v", storedName, cleanupErr)
		}
		return nil, err
	}
	return &attachment, nil
}

func (s *AttachmentServiceImpl) GetAttachmentPath(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Attachment, string, error) {
	attachment, err := s.loadAttachment(db, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.authorizeTaskRead(db, actor, attachment.TaskID); err != nil {
		return nil, "", err
	}

	path, err := s.blobs.Path(attachment.Filename)
	if err != nil {
		return nil, "", ErrNotFound
	}
	return attachment, path, nil
}

func (s *AttachmentServiceImpl) DeleteAttachment(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	attachment, err := s.loadAttachment(db, id)
	if err != nil {
		return err
	}
	if err := s.authorizeTaskRead(db, actor, attachment.TaskID); err != nil {
		return err
	}

	if err := db.Delete(attachment).Error; err != nil {
		return err
	}
	if err := s.blobs.Delete(attachment.Filename); err != nil {
		log.Printf("failed to delete blob %s: %v", attachment.Filename, err)
	}
	return nil
}

func (s *AttachmentServiceImpl) loadAttachment(db *gorm.DB, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := db.Where("id = ?", id).First(&attachment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

func (s *AttachmentServiceImpl) authorizeTaskRead(db *gorm.DB, actor *models.User, taskID uuid.UUID) error {
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
