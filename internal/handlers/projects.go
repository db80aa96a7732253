package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type ProjectHandler struct {
	db             *gorm.DB
	projectService services.ProjectService
	statsService   services.StatsService
}

func NewProjectHandler(db *gorm.DB, projectService services.ProjectService, statsService services.StatsService) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: projectService, statsService: statsService}
}

// GetProjects lists the projects visible to the authenticated user: the ones
// they own or belong to, or everything for admins.
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(h.db, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProjectByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(h.db, middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Name        string      `json:"name" binding:"required"`
		Description string      `json:"description"`
		MemberIDs   []uuid.UUID `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.projectService.CreateProject(h.db, middleware.CurrentUser(c), services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// UpdateProject applies a partial update. When memberIds is present the member
// set is replaced wholesale and newly added members are notified.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string      `json:"name"`
		Description *string      `json:"description"`
		MemberIDs   *[]uuid.UUID `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.projectService.UpdateProject(h.db, middleware.CurrentUser(c), id, services.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(h.db, middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// GetProjectStats computes the project's aggregates on demand. Counts are
// derived from the live task rows, never from a cached value.
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, ok := parseUUIDParam(c, "projectId")
	if !ok {
		return
	}

	stats, err := h.statsService.ComputeProjectStats(h.db, middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
