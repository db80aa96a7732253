package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		ListID      uuid.UUID  `json:"listId" binding:"required"`
		AssigneeID  *uuid.UUID `json:"assigneeId"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    string     `json:"priority"`
		Status      string     `json:"status"`
		ParentID    *uuid.UUID `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.taskService.CreateTask(h.db, middleware.CurrentUser(c), services.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		ListID:      req.ListID,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
		ParentID:    req.ParentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(h.db, middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) GetTasksByProject(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "projectId")
	if !ok {
		return
	}

	tasks, err := h.taskService.GetTasksByProject(h.db, middleware.CurrentUser(c), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTasksByUser lists every task assigned to the given user. Restricted to
// the user themselves or an admin.
func (h *TaskHandler) GetTasksByUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	tasks, err := h.taskService.GetTasksByUser(h.db, middleware.CurrentUser(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

var jsonNull = []byte("null")

// UpdateTask applies a partial update. Fields absent from the body keep their
// current value; an explicit JSON null clears assigneeId or dueDate. The body
// is decoded into raw messages first because encoding/json cannot otherwise
// tell "absent" apart from "null".
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err.Error())
		return
	}

	var patch services.TaskPatch
	if err := decodeField(raw, "name", &patch.Name); err != nil {
		badRequest(c, "invalid name")
		return
	}
	if err := decodeField(raw, "description", &patch.Description); err != nil {
		badRequest(c, "invalid description")
		return
	}
	if err := decodeField(raw, "listId", &patch.ListID); err != nil {
		badRequest(c, "invalid listId")
		return
	}
	if err := decodeField(raw, "priority", &patch.Priority); err != nil {
		badRequest(c, "invalid priority")
		return
	}
	if err := decodeField(raw, "status", &patch.Status); err != nil {
		badRequest(c, "invalid status")
		return
	}
	if msg, present := raw["assigneeId"]; present {
		if bytes.Equal(bytes.TrimSpace(msg), jsonNull) {
			patch.ClearAssignee = true
		} else if err := json.Unmarshal(msg, &patch.AssigneeID); err != nil {
			badRequest(c, "invalid assigneeId")
			return
		}
	}
	if msg, present := raw["dueDate"]; present {
		if bytes.Equal(bytes.TrimSpace(msg), jsonNull) {
			patch.ClearDueDate = true
		} else if err := json.Unmarshal(msg, &patch.DueDate); err != nil {
			badRequest(c, "invalid dueDate")
			return
		}
	}

	task, err := h.taskService.ApplyTaskUpdate(h.db, middleware.CurrentUser(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(h.db, middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// decodeField unmarshals raw[key] into dst when the key is present and not
// null. Null is ignored here; clearable fields handle it separately.
func decodeField[T any](raw map[string]json.RawMessage, key string, dst **T) error {
	msg, present := raw[key]
	if !present || bytes.Equal(bytes.TrimSpace(msg), jsonNull) {
		return nil
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
