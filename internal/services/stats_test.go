package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

func TestComputeProjectStats(t *testing.T) {
	db := newTestDB(t)
	authz := services.NewAuthorizationService(db)
	svc := services.NewStatsService(authz)

	owner := createUser(t, db, "stats-owner", models.RoleMember)
	project := createProject(t, db, owner)
	list := createList(t, db, project)
	otherList := createList(t, db, project)

	statuses := []string{
		models.StatusTodo,
		models.StatusInProgress,
		models.StatusInProgress,
		models.StatusDone,
		models.StatusInReview,
	}
	var tasks []*models.Task
	for i, status := range statuses {
		l := list
		if i%2 == 1 {
			l = otherList
		}
		task := createTask(t, db, l, status)
		if err := db.Model(task).Update("status", status).Error; err != nil {
			t.Fatalf("failed to set status: %v", err)
		}
		tasks = append(tasks, task)
	}

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i, minutes := range []int{30, 45} {
		end := start.Add(time.Duration(minutes) * time.Minute)
		log := &models.TimeLog{
			TaskID:    tasks[i].ID,
			UserID:    owner.ID,
			StartTime: start,
			EndTime:   &end,
			Duration:  minutes,
		}
		if err := db.Create(log).Error; err != nil {
			t.Fatalf("failed to create time log: %v", err)
		}
	}

	stats, err := svc.ComputeProjectStats(db, owner, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalTasks != 5 {
		t.Errorf("expected 5 total tasks, got %d", stats.TotalTasks)
	}
	if stats.CompletedTasks != 1 {
		t.Errorf("expected 1 completed task, got %d", stats.CompletedTasks)
	}
	if stats.InProgressTasks != 2 {
		t.Errorf("expected 2 in-progress tasks, got %d", stats.InProgressTasks)
	}
	if stats.TotalTime != 75 {
		t.Errorf("expected 75 minutes of logged time, got %d", stats.TotalTime)
	}
	if stats.CompletedTasks+stats.InProgressTasks > stats.TotalTasks {
		t.Error("status counters exceed the task total")
	}

	// Recomputing without changes yields the same numbers.
	again, err := svc.ComputeProjectStats(db, owner, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *again != *stats {
		t.Errorf("expected identical stats on recompute, got %+v vs %+v", again, stats)
	}

	// Stats follow live data immediately.
	if err := db.Model(tasks[0]).Update("status", models.StatusDone).Error; err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	fresh, err := svc.ComputeProjectStats(db, owner, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.CompletedTasks != 2 {
		t.Errorf("expected completed count to track live rows, got %d", fresh.CompletedTasks)
	}
}

func TestComputeProjectStats_EmptyProject(t *testing.T) {
	db := newTestDB(t)
	authz := services.NewAuthorizationService(db)
	svc := services.NewStatsService(authz)

	owner := createUser(t, db, "empty-owner", models.RoleMember)
	project := createProject(t, db, owner)

	stats, err := svc.ComputeProjectStats(db, owner, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalTasks != 0 || stats.CompletedTasks != 0 || stats.InProgressTasks != 0 || stats.TotalTime != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}

func TestComputeProjectStats_DeniedForOutsider(t *testing.T) {
	db := newTestDB(t)
	authz := services.NewAuthorizationService(db)
	svc := services.NewStatsService(authz)

	owner := createUser(t, db, "outside-owner", models.RoleMember)
	outsider := createUser(t, db, "outside-user", models.RoleMember)
	project := createProject(t, db, owner)

	_, err := svc.ComputeProjectStats(db, outsider, project.ID)
	var de *services.DeniedError
	if !errors.As(err, &de) {
		t.Fatalf("expected denied error, got %v", err)
	}
}
