package services

import (
	"context"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

// Decision is the result of an access-policy check. A deny always carries the
// reason returned to the caller.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return Denied(d.Reason)
}

// AuthorizationService is the single access policy for projects, tasks and
// comments. One consistent rule set: project creation is restricted to
// admins and managers, task creation to admins, task updates to the admin
// role or the task's current assignee.
type AuthorizationService interface {
	CanListAllProjects(actor *models.User) bool
	CanReadProject(actor *models.User, project *models.Project) Decision
	CanCreateProject(actor *models.User) Decision
	CanUpdateProject(actor *models.User, project *models.Project) Decision
	CanDeleteProject(actor *models.User, project *models.Project) Decision
	CanCreateTask(actor *models.User, project *models.Project) Decision
	CanUpdateTask(actor *models.User, task *models.Task) Decision
	CanDeleteTask(actor *models.User, task *models.Task) Decision
	CanDeleteComment(actor *models.User, comment *models.Comment) Decision
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
}

type AuthorizationServiceImpl struct {
	db *gorm.DB
}

func NewAuthorizationService(db *gorm.DB) *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{db: db}
}

func (s *AuthorizationServiceImpl) CanListAllProjects(actor *models.User) bool {
	return actor.Role == models.RoleAdmin
}

func (s *AuthorizationServiceImpl) CanReadProject(actor *models.User, project *models.Project) Decision {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleManager {
		return allow()
	}
	if project.OwnerID == actor.ID || project.HasMember(actor.ID) {
		return allow()
	}
	return deny("not authorized")
}

func (s *AuthorizationServiceImpl) CanCreateProject(actor *models.User) Decision {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleManager {
		return allow()
	}
	return deny("only admins and managers can create projects")
}

func (s *AuthorizationServiceImpl) CanUpdateProject(actor *models.User, project *models.Project) Decision {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleManager {
		return allow()
	}
	if project.OwnerID == actor.ID || project.HasMember(actor.ID) {
		return allow()
	}
	return deny("not authorized")
}

func (s *AuthorizationServiceImpl) CanDeleteProject(actor *models.User, project *models.Project) Decision {
	if actor.Role == models.RoleAdmin || project.OwnerID == actor.ID {
		return allow()
	}
	return deny("only the project owner or an admin can delete a project")
}

// CanCreateTask requires the admin role and a readable target project.
func (s *AuthorizationServiceImpl) CanCreateTask(actor *models.User, project *models.Project) Decision {
	if actor.Role != models.RoleAdmin {
		return deny("only admins can create tasks")
	}
	return s.CanReadProject(actor, project)
}

func (s *AuthorizationServiceImpl) CanUpdateTask(actor *models.User, task *models.Task) Decision {
	if actor.Role == models.RoleAdmin {
		return allow()
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		return allow()
	}
	return deny("only the assignee or an admin can update a task")
}

func (s *AuthorizationServiceImpl) CanDeleteTask(actor *models.User, task *models.Task) Decision {
	if actor.Role == models.RoleAdmin {
		return allow()
	}
	if task.AssigneeID != nil && *task.AssigneeID == actor.ID {
		return allow()
	}
	return deny("only the assignee or an admin can delete a task")
}

func (s *AuthorizationServiceImpl) CanDeleteComment(actor *models.User, comment *models.Comment) Decision {
	if actor.Role == models.RoleAdmin || comment.AuthorID == actor.ID {
		return allow()
	}
	return deny("only the comment author or an admin can delete a comment")
}

func (s *AuthorizationServiceImpl) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("role").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return user.Role == role, nil
}
