package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/domain"
	"taskboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Task Service — business logic for tasks
// ─────────────────────────────────────────────────────────────

// TaskService manages tasks within projects.
type TaskService struct {
	store    *storage.TaskStore
	projects *storage.ProjectStore
	emitter  EventEmitter
}

// NewTaskService creates a TaskService.
func NewTaskService(store *storage.TaskStore, projects *storage.ProjectStore, emitter EventEmitter) *TaskService {
	return &TaskService{store: store, projects: projects, emitter: emitter}
}

// CreateTaskInput is the service-layer DTO for creating/updating tasks.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"` // RFC3339 or YYYY-MM-DD, empty for none
	Assignee    string `json:"assignee"`
}

func (s *TaskService) ListTasks(projectID string) ([]domain.Task, error) {
	return s.store.ListTasks(projectID)
}

func (s *TaskService) GetTask(id string) (*domain.Task, error) {
	return s.store.GetTask(id)
}

func (s *TaskService) CreateTask(ctx context.Context, projectID string, input CreateTaskInput) (*domain.Task, error) {
	if _, err := s.projects.GetProject(projectID); err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
	}
	if err := applyTaskInput(t, input); err != nil {
		return nil, err
	}
	if err := s.store.CreateTask(t); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "task:created", t.ID)
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, input CreateTaskInput) (*domain.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if err := applyTaskInput(t, input); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "task:updated", t.ID)
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.store.GetTask(id); err != nil {
		return err
	}
	if err := s.store.DeleteTask(id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "task:deleted", id)
	return nil
}

// applyTaskInput validates the input and copies it onto the task.
func applyTaskInput(t *domain.Task, input CreateTaskInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("task title is required")
	}

	status := domain.TaskStatus(input.Status)
	if input.Status == "" {
		status = domain.TaskTodo
		if t.Status != "" {
			status = t.Status
		}
	}
	if !status.Valid() {
		return fmt.Errorf("invalid task status %q", input.Status)
	}

	priority := domain.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = domain.PriorityMedium
		if t.Priority != "" {
			priority = t.Priority
		}
	}
	if !priority.Valid() {
		return fmt.Errorf("invalid task priority %q", input.Priority)
	}

	t.Title = title
	t.Description = input.Description
	t.Status = status
	t.Priority = priority
	t.Assignee = strings.TrimSpace(input.Assignee)

	t.DueDate = nil
	if input.DueDate != "" {
		due, err := parseDue(input.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = &due
	}

	// The sweep is the only thing that sets the overdue flag; an update
	// that completes the task or moves the due date clears it.
	t.Overdue = t.Overdue && t.IsOverdue(time.Now())
	return nil
}

func parseDue(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}
