package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type ListHandler struct {
	db          *gorm.DB
	listService services.ListService
}

func NewListHandler(db *gorm.DB, listService services.ListService) *ListHandler {
	return &ListHandler{db: db, listService: listService}
}

func (h *ListHandler) GetListsByProject(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "projectId")
	if !ok {
		return
	}

	lists, err := h.listService.GetListsByProject(h.db, middleware.CurrentUser(c), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (h *ListHandler) CreateList(c *gin.Context) {
	var req struct {
		Name      string    `json:"name" binding:"required"`
		ProjectID uuid.UUID `json:"projectId" binding:"required"`
		Order     *int      `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.listService.CreateList(h.db, middleware.CurrentUser(c), services.ListInput{
		Name:      req.Name,
		ProjectID: req.ProjectID,
		Order:     req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"list": list})
}

func (h *ListHandler) UpdateList(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Order *int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.listService.UpdateList(h.db, middleware.CurrentUser(c), id, services.ListPatch{
		Name:  req.Name,
		Order: req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.listService.DeleteList(h.db, middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}
