package service_test

import (
	"context"
	"testing"

	"taskboard/internal/service"
	"taskboard/internal/storage"
)

func newSweepFixture(t *testing.T) (*service.OverdueSweeper, *service.TaskService, string, *service.MockEmitter) {
	t.Helper()
	db := newTestDB(t)
	projects := storage.NewProjectStore(db)
	tasks := storage.NewTaskStore(db)
	emitter := &service.MockEmitter{}

	projSvc := service.NewProjectService(projects, tasks, emitter)
	taskSvc := service.NewTaskService(tasks, projects, emitter)
	sweeper := service.NewOverdueSweeper(tasks, emitter)
	t.Cleanup(sweeper.Stop)

	p, err := projSvc.CreateProject(context.Background(), service.CreateProjectInput{Name: "Deadlines"})
	if err != nil {
		t.Fatal(err)
	}
	return sweeper, taskSvc, p.ID, emitter
}

func countEvents(emitter *service.MockEmitter, name string) int {
	n := 0
	for _, e := range emitter.Events {
		if e.Event == name {
			n++
		}
	}
	return n
}

func TestOverdueSweeper_MarksAndAnnouncesOnce(t *testing.T) {
	sweeper, taskSvc, projectID, emitter := newSweepFixture(t)
	ctx := context.Background()

	late, err := taskSvc.CreateTask(ctx, projectID, service.CreateTaskInput{
		Title:   "Ship release notes",
		DueDate: "2020-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	onTime, err := taskSvc.CreateTask(ctx, projectID, service.CreateTaskInput{
		Title:   "Plan next sprint",
		DueDate: "2999-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	sweeper.Sweep(ctx)

	reloaded, err := taskSvc.GetTask(late.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Overdue {
		t.Error("past-due task must be flagged overdue after a sweep")
	}
	future, err := taskSvc.GetTask(onTime.ID)
	if err != nil {
		t.Fatal(err)
	}
	if future.Overdue {
		t.Error("task due in the future must not be flagged")
	}
	if n := countEvents(emitter, "task:overdue"); n != 1 {
		t.Fatalf("expected one task:overdue event, got %d", n)
	}

	// A second sweep must not re-announce the same task.
	sweeper.Sweep(ctx)
	if n := countEvents(emitter, "task:overdue"); n != 1 {
		t.Fatalf("expected the flag to stick across sweeps, got %d events", n)
	}
}

func TestOverdueSweeper_CompletingTaskClearsFlag(t *testing.T) {
	sweeper, taskSvc, projectID, _ := newSweepFixture(t)
	ctx := context.Background()

	task, err := taskSvc.CreateTask(ctx, projectID, service.CreateTaskInput{
		Title:   "Pay invoice",
		DueDate: "2020-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	sweeper.Sweep(ctx)

	done, err := taskSvc.UpdateTask(ctx, task.ID, service.CreateTaskInput{
		Title:   "Pay invoice",
		Status:  "done",
		DueDate: "2020-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if done.Overdue {
		t.Error("completing a task must clear the overdue flag")
	}

	reloaded, err := taskSvc.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Overdue {
		t.Error("cleared flag must be persisted")
	}
}
