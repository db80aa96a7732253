package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type TimeLogHandler struct {
	db             *gorm.DB
	timeLogService services.TimeLogService
}

func NewTimeLogHandler(db *gorm.DB, timeLogService services.TimeLogService) *TimeLogHandler {
	return &TimeLogHandler{db: db, timeLogService: timeLogService}
}

func (h *TimeLogHandler) GetLogsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}

	logs, err := h.timeLogService.GetLogsByTask(h.db, middleware.CurrentUser(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_logs": logs})
}

// StartLog opens a time log for the authenticated user. At most one open log
// per (task, user) is allowed; a second start is rejected with a conflict.
func (h *TimeLogHandler) StartLog(c *gin.Context) {
	var req struct {
		TaskID uuid.UUID `json:"taskId" binding:"required"`
		Note   string    `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	log, err := h.timeLogService.StartLog(h.db, middleware.CurrentUser(c), req.TaskID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"time_log": log})
}

func (h *TimeLogHandler) StopLog(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	log, err := h.timeLogService.StopLog(h.db, middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_log": log})
}
