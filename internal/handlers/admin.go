package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

// AdminHandler serves the admin-only management surface. Routes using it must
// sit behind middleware.RequireRoles(models.RoleAdmin).
type AdminHandler struct {
	db             *gorm.DB
	userService    services.UserService
	projectService services.ProjectService
}

func NewAdminHandler(db *gorm.DB, userService services.UserService, projectService services.ProjectService) *AdminHandler {
	return &AdminHandler{db: db, userService: userService, projectService: projectService}
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.ListUsersFull(h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateRole(h.db, id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes the account and detaches it from memberships, assigned
// tasks, and issued tokens. Admins may not delete themselves.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if middleware.CurrentUser(c).ID == id {
		badRequest(c, "cannot delete your own account")
		return
	}

	if err := h.userService.DeleteUser(h.db, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *AdminHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectService.ListAllProjects(h.db)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// DeleteProject removes any project with the full cascade, regardless of
// ownership.
func (h *AdminHandler) DeleteProject(c *gin.Context) {
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

// ReplaceProjectMembers swaps a project's member set without the usual owner
// check; the admin guard on the route group is the authorization.
func (h *AdminHandler) ReplaceProjectMembers(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		MemberIDs []uuid.UUID `json:"memberIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.projectService.ReplaceMembers(h.db, id, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}
