package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/table"
)

// projectListColumns mirrors the web UI's project table, so filter and
// sort behave identically for agents and humans.
func projectListColumns() []table.Column[domain.Project] {
	return []table.Column[domain.Project]{
		{ID: "name", Label: "Name", Value: func(p domain.Project) any { return p.Name }, Sortable: true, Filterable: true},
		{ID: "description", Label: "Description", Value: func(p domain.Project) any { return p.Description }, Filterable: true},
		{ID: "status", Label: "Status", Value: func(p domain.Project) any { return string(p.Status) }, Sortable: true, Filterable: true},
		{ID: "createdAt", Label: "Created", Value: func(p domain.Project) any { return p.CreatedAt }, Sortable: true},
	}
}

func (s *Server) registerProjectTools() {
	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects as a paged table. Supports free-text filtering, sorting, and pagination; the page position is remembered between calls."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring filter over name, description, and status")),
		mcp.WithString("sort", mcp.Description("Sort column: name | status | createdAt")),
		mcp.WithString("dir", mcp.Description("Sort direction: asc | desc")),
		mcp.WithNumber("page", mcp.Description("Page index (0-based); omit to resume the stored position")),
		mcp.WithNumber("pageSize", mcp.Description("Rows per page (default 10)")),
	), s.handleListProjects)

	s.mcp.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get a single project by ID"),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
	), s.handleGetProject)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a project"),
		mcp.WithString("name", mcp.Description("Project name"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Project description")),
		mcp.WithString("status", mcp.Description("active | archived (default active)")),
	), s.handleCreateProject)

	s.mcp.AddTool(mcp.NewTool("update_project",
		mcp.WithDescription("Update a project's name, description, or status"),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New project name"), mcp.Required()),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("active | archived; omit to keep current")),
	), s.handleUpdateProject)

	s.mcp.AddTool(mcp.NewTool("delete_project",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a project and ALL of its tasks."),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteProject)
}

func (s *Server) handleListProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	la := parseListArgs(req.GetArguments())

	rows, err := s.projects.ListProjects()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	t, err := table.New("projects", rows, projectListColumns(), la.PageSize, s.pages)
	if err != nil {
		return nil, err
	}
	applyListArgs(t, la)
	return viewResult(t.View())
}

func (s *Server) handleGetProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("projectId", "")
	if id == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	p, err := s.projects.GetProject(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(p)
}

func (s *Server) handleCreateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := service.CreateProjectInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Status:      req.GetString("status", ""),
	}
	p, err := s.projects.CreateProject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return jsonResult(p)
}

func (s *Server) handleUpdateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("projectId", "")
	if id == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	input := service.CreateProjectInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Status:      req.GetString("status", ""),
	}
	p, err := s.projects.UpdateProject(ctx, id, input)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return jsonResult(p)
}

func (s *Server) handleDeleteProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("projectId", "")
	if id == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	if err := s.projects.DeleteProject(ctx, id); err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	return textResult(fmt.Sprintf("Project %s deleted", id)), nil
}
