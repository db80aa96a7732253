package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so the query text matches literally.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

type SearchResult struct {
	Tasks    []models.Task    `json:"tasks"`
	Projects []models.Project `json:"projects"`
}

// SearchService matches task and project names case-insensitively, limited to
// what the actor is allowed to see.
type SearchService interface {
	Search(db *gorm.DB, actor *models.User, query string) (*SearchResult, error)
}

type SearchServiceImpl struct {
	authz AuthorizationService
}

func NewSearchService(authz AuthorizationService) *SearchServiceImpl {
	return &SearchServiceImpl{authz: authz}
}

func (s *SearchServiceImpl) Search(db *gorm.DB, actor *models.User, query string) (*SearchResult, error) {
	if query == "" {
		return &SearchResult{Tasks: []models.Task{}, Projects: []models.Project{}}, nil
	}

	pattern := "%" + escapeLike(query) + "%"

	var projects []models.Project
	if err := db.Preload("Members").Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\'", pattern).Find(&projects).Error; err != nil {
		return nil, err
	}

	visible := make([]models.Project, 0, len(projects))
	for i := range projects {
		if s.authz.CanReadProject(actor, &projects[i]).Allowed {
			visible = append(visible, projects[i])
		}
	}

	// Match tasks by name, then keep only the ones under a visible project.
	var tasks []models.Task
	if err := db.Preload("Assignee").Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\'", pattern).Find(&tasks).Error; err != nil {
		return nil, err
	}

	accessible := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		project, err := projectForList(db, tasks[i].ListID)
		if err != nil {
			continue
		}
		if s.authz.CanReadProject(actor, project).Allowed {
			accessible = append(accessible, tasks[i])
		}
	}

	return &SearchResult{Tasks: accessible, Projects: visible}, nil
}
