package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type CommentHandler struct {
	db             *gorm.DB
	commentService services.CommentService
}

func NewCommentHandler(db *gorm.DB, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{db: db, commentService: commentService}
}

func (h *CommentHandler) GetCommentsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}

	comments, err := h.commentService.GetCommentsByTask(h.db, middleware.CurrentUser(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req struct {
		TaskID uuid.UUID `json:"taskId" binding:"required"`
		Body   string    `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(h.db, middleware.CurrentUser(c), req.TaskID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(h.db, middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
