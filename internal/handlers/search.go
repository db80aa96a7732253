package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

type SearchHandler struct {
	db            *gorm.DB
	searchService services.SearchService
}

func NewSearchHandler(db *gorm.DB, searchService services.SearchService) *SearchHandler {
	return &SearchHandler{db: db, searchService: searchService}
}

// Search matches task and project names against ?q=, restricted to what the
// caller is allowed to read.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "query parameter q is required")
		return
	}

	result, err := h.searchService.Search(h.db, middleware.CurrentUser(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
