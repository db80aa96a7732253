package services_test

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

func TestCreateProject_NotifiesMembers(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	manager := createUser(t, db, "np-manager", models.RoleManager)
	alice := createUser(t, db, "np-alice", models.RoleMember)
	bob := createUser(t, db, "np-bob", models.RoleMember)

	project, err := svc.CreateProject(db, manager, services.ProjectInput{
		Name:      "Launch",
		MemberIDs: []uuid.UUID{alice.ID, bob.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.OwnerID != manager.ID {
		t.Error("expected creator to own the project")
	}

	for _, u := range []*models.User{alice, bob} {
		if got := countNotifications(t, db, u.ID, models.NotificationProjectAssigned); got != 1 {
			t.Errorf("user %s: expected 1 assignment notification, got %d", u.Name, got)
		}
	}
	if got := countNotifications(t, db, manager.ID, models.NotificationProjectAssigned); got != 0 {
		t.Errorf("expected no notification for the creator, got %d", got)
	}
}

func TestCreateProject_DeniedForMember(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	member := createUser(t, db, "cp-member", models.RoleMember)

	_, err := svc.CreateProject(db, member, services.ProjectInput{Name: "Side Project"})
	var de *services.DeniedError
	if !errors.As(err, &de) {
		t.Fatalf("expected denied error, got %v", err)
	}
}

func TestUpdateProject_NotifiesOnlyNewMembers(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	manager := createUser(t, db, "diff-manager", models.RoleManager)
	alice := createUser(t, db, "diff-alice", models.RoleMember)
	bob := createUser(t, db, "diff-bob", models.RoleMember)

	project, err := svc.CreateProject(db, manager, services.ProjectInput{
		Name:      "Diff",
		MemberIDs: []uuid.UUID{alice.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Keep alice, add bob. Only bob is new.
	members := []uuid.UUID{alice.ID, bob.ID}
	if _, err := svc.UpdateProject(db, manager, project.ID, services.ProjectPatch{
		MemberIDs: &members,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := countNotifications(t, db, alice.ID, models.NotificationProjectAssigned); got != 1 {
		t.Errorf("alice: expected 1 notification total, got %d", got)
	}
	if got := countNotifications(t, db, bob.ID, models.NotificationProjectAssigned); got != 1 {
		t.Errorf("bob: expected 1 notification, got %d", got)
	}

	// Re-submitting the identical member set adds nothing.
	if _, err := svc.UpdateProject(db, manager, project.ID, services.ProjectPatch{
		MemberIDs: &members,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := countNotifications(t, db, bob.ID, models.NotificationProjectAssigned); got != 1 {
		t.Errorf("bob: expected notification count unchanged after no-op update, got %d", got)
	}
}

func TestUpdateProject_UnknownMemberRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	manager := createUser(t, db, "um-manager", models.RoleManager)
	project, err := svc.CreateProject(db, manager, services.ProjectInput{Name: "Ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	members := []uuid.UUID{uuid.Must(uuid.NewV4())}
	_, err = svc.UpdateProject(db, manager, project.ID, services.ProjectPatch{MemberIDs: &members})
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListProjects_ScopedToActor(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	owner := createUser(t, db, "scope-owner", models.RoleMember)
	member := createUser(t, db, "scope-member", models.RoleMember)
	outsider := createUser(t, db, "scope-outsider", models.RoleMember)
	admin := createUser(t, db, "scope-admin", models.RoleAdmin)

	createProject(t, db, owner, member)
	createProject(t, db, owner)

	tests := []struct {
		name  string
		actor *models.User
		want  int
	}{
		{"owner sees both", owner, 2},
		{"member sees one", member, 1},
		{"outsider sees none", outsider, 0},
		{"admin sees all", admin, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := svc.ListProjects(db, tt.actor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(projects) != tt.want {
				t.Errorf("expected %d projects, got %d", tt.want, len(projects))
			}
		})
	}
}

func TestDeleteProject_CascadesAndStops(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	owner := createUser(t, db, "cascade-owner", models.RoleMember)
	member := createUser(t, db, "cascade-member", models.RoleMember)

	doomed := createProject(t, db, owner, member)
	survivor := createProject(t, db, owner)

	doomedList := createList(t, db, doomed)
	survivorList := createList(t, db, survivor)

	doomedTask := createTask(t, db, doomedList, "doomed")
	survivorTask := createTask(t, db, survivorList, "survivor")

	comment := &models.Comment{Body: "gone soon", TaskID: doomedTask.ID, AuthorID: member.ID}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}
	timeLog := &models.TimeLog{TaskID: doomedTask.ID, UserID: member.ID, StartTime: doomedTask.CreatedAt}
	if err := db.Create(timeLog).Error; err != nil {
		t.Fatalf("failed to create time log: %v", err)
	}

	if err := svc.DeleteProject(db, owner, doomed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := []struct {
		name  string
		model interface{}
		where string
		arg   interface{}
	}{
		{"project", &models.Project{}, "id = ?", doomed.ID},
		{"lists", &models.List{}, "project_id = ?", doomed.ID},
		{"tasks", &models.Task{}, "list_id = ?", doomedList.ID},
		{"comments", &models.Comment{}, "task_id = ?", doomedTask.ID},
		{"time logs", &models.TimeLog{}, "task_id = ?", doomedTask.ID},
	}
	for _, c := range counts {
		var n int64
		if err := db.Model(c.model).Where(c.where, c.arg).Count(&n).Error; err != nil {
			t.Fatalf("count %s failed: %v", c.name, err)
		}
		if n != 0 {
			t.Errorf("expected %s removed, found %d rows", c.name, n)
		}
	}

	// Users and the unrelated project are untouched.
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount != 2 {
		t.Errorf("expected users to survive, got %d", userCount)
	}
	if err := db.First(&models.Task{}, "id = ?", survivorTask.ID).Error; err != nil {
		t.Errorf("expected unrelated task to survive: %v", err)
	}
}

func TestDeleteProject_DeniedForMember(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	owner := createUser(t, db, "dp-owner", models.RoleMember)
	member := createUser(t, db, "dp-member", models.RoleMember)
	project := createProject(t, db, owner, member)

	err := svc.DeleteProject(db, member, project.ID)
	var de *services.DeniedError
	if !errors.As(err, &de) {
		t.Fatalf("expected denied error, got %v", err)
	}

	if err := db.First(&models.Project{}, "id = ?", project.ID).Error; err != nil {
		t.Errorf("expected project to remain: %v", err)
	}
}

func TestUpdateProject_DuplicateMemberIDNotifiesOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)

	manager := createUser(t, db, "dup-manager", models.RoleManager)
	carol := createUser(t, db, "dup-carol", models.RoleMember)

	project, err := svc.CreateProject(db, manager, services.ProjectInput{Name: "Dup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The same new member twice in one request still notifies exactly once.
	members := []uuid.UUID{carol.ID, carol.ID}
	if _, err := svc.UpdateProject(db, manager, project.ID, services.ProjectPatch{
		MemberIDs: &members,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := countNotifications(t, db, carol.ID, models.NotificationProjectAssigned); got != 1 {
		t.Errorf("expected exactly 1 notification for duplicated member id, got %d", got)
	}
}
