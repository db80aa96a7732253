package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type NotificationHandler struct {
	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewNotificationHandler(db *gorm.DB, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{db: db, notificationService: notificationService}
}

// GetMyNotifications returns the authenticated user's notifications, newest
// first. Clients poll this endpoint; there is no push channel.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	user := middleware.CurrentUser(c)

	notifications, err := h.notificationService.ListForUser(h.db, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(h.db, id, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}
