package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/domain"
	"taskboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Project Service — business logic for projects
// ─────────────────────────────────────────────────────────────

// ProjectService manages project lifecycle. Deleting a project cascades
// to its tasks.
type ProjectService struct {
	store   *storage.ProjectStore
	tasks   *storage.TaskStore
	emitter EventEmitter
}

// NewProjectService creates a ProjectService.
func NewProjectService(store *storage.ProjectStore, tasks *storage.TaskStore, emitter EventEmitter) *ProjectService {
	return &ProjectService{store: store, tasks: tasks, emitter: emitter}
}

// CreateProjectInput is the service-layer DTO for creating/updating projects.
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (s *ProjectService) ListProjects() ([]domain.Project, error) {
	return s.store.ListProjects()
}

func (s *ProjectService) GetProject(id string) (*domain.Project, error) {
	return s.store.GetProject(id)
}

func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	status := domain.ProjectStatus(input.Status)
	if input.Status == "" {
		status = domain.ProjectActive
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid project status %q", input.Status)
	}

	p := &domain.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: input.Description,
		Status:      status,
	}
	if err := s.store.CreateProject(p); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "project:created", p.ID)
	return p, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, id string, input CreateProjectInput) (*domain.Project, error) {
	p, err := s.store.GetProject(id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	status := domain.ProjectStatus(input.Status)
	if input.Status == "" {
		status = p.Status
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid project status %q", input.Status)
	}

	p.Name = name
	p.Description = input.Description
	p.Status = status
	if err := s.store.UpdateProject(p); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "project:updated", p.ID)
	return p, nil
}

// DeleteProject removes a project and all of its tasks.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.store.GetProject(id); err != nil {
		return err
	}
	if err := s.tasks.DeleteTasksByProject(id); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	if err := s.store.DeleteProject(id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "project:deleted", id)
	return nil
}
