package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type AttachmentHandler struct {
	db                *gorm.DB
	attachmentService services.AttachmentService
	maxUploadBytes    int64
}

func NewAttachmentHandler(db *gorm.DB, attachmentService services.AttachmentService, maxUploadBytes int64) *AttachmentHandler {
	return &AttachmentHandler{db: db, attachmentService: attachmentService, maxUploadBytes: maxUploadBytes}
}

func (h *AttachmentHandler) GetAttachmentsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.GetAttachmentsByTask(h.db, middleware.CurrentUser(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

// UploadAttachment accepts a multipart form with a "task_id" field and a
// single "file" part, storing the blob on disk alongside a metadata row.
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	taskID, err := uuid.FromString(c.PostForm("task_id"))
	if err != nil {
		badRequest(c, "invalid task_id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		badRequest(c, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.UploadAttachment(h.db, middleware.CurrentUser(c), services.AttachmentUpload{
		TaskID:       taskID,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Data:         file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}

func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	attachment, path, err := h.attachmentService.GetAttachmentPath(h.db, middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+attachment.OriginalName+`"`)
	if attachment.MimeType != "" {
		c.Header("Content-Type", attachment.MimeType)
	}
	c.File(path)
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.attachmentService.DeleteAttachment(h.db, middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "attachment deleted"})
}
