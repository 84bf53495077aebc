package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/table"
)

func taskListColumns() []table.Column[domain.Task] {
	return []table.Column[domain.Task]{
		{ID: "title", Label: "Title", Value: func(t domain.Task) any { return t.Title }, Sortable: true, Filterable: true},
		{ID: "status", Label: "Status", Value: func(t domain.Task) any { return string(t.Status) }, Sortable: true, Filterable: true},
		{
			ID:       "priority",
			Label:    "Priority",
			Value:    func(t domain.Task) any { return string(t.Priority) },
			Less:     func(a, b domain.Task) bool { return a.Priority.Rank() < b.Priority.Rank() },
			Sortable: true,
		},
		{
			ID:    "dueDate",
			Label: "Due",
			Value: func(t domain.Task) any {
				if t.DueDate == nil {
					return nil
				}
				return *t.DueDate
			},
			Sortable: true,
		},
		{ID: "assignee", Label: "Assignee", Value: func(t domain.Task) any { return t.Assignee }, Sortable: true, Filterable: true},
	}
}

func (s *Server) registerTaskTools() {
	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List a project's tasks as a paged table. Supports free-text filtering, sorting, and pagination; each project's page position is remembered between calls."),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
		mcp.WithString("query", mcp.Description("Case-insensitive substring filter over title, status, and assignee")),
		mcp.WithString("sort", mcp.Description("Sort column: title | status | priority | dueDate | assignee")),
		mcp.WithString("dir", mcp.Description("Sort direction: asc | desc")),
		mcp.WithNumber("page", mcp.Description("Page index (0-based); omit to resume the stored position")),
		mcp.WithNumber("pageSize", mcp.Description("Rows per page (default 10)")),
	), s.handleListTasks)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task in a project"),
		mcp.WithString("projectId", mcp.Description("Project ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("todo | in_progress | done (default todo)")),
		mcp.WithString("priority", mcp.Description("low | medium | high (default medium)")),
		mcp.WithString("dueDate", mcp.Description("Due date, YYYY-MM-DD or RFC3339")),
		mcp.WithString("assignee", mcp.Description("Assignee name")),
	), s.handleCreateTask)

	s.mcp.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a task. Omitting status/priority keeps the current values; omitting dueDate clears it."),
		mcp.WithString("taskId", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("todo | in_progress | done")),
		mcp.WithString("priority", mcp.Description("low | medium | high")),
		mcp.WithString("dueDate", mcp.Description("Due date, YYYY-MM-DD or RFC3339")),
		mcp.WithString("assignee", mcp.Description("Assignee name")),
	), s.handleUpdateTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a task."),
		mcp.WithString("taskId", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteTask)
}

func (s *Server) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("projectId", "")
	if projectID == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	if _, err := s.projects.GetProject(projectID); err != nil {
		return nil, err
	}

	la := parseListArgs(req.GetArguments())
	rows, err := s.tasks.ListTasks(projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	t, err := table.New("tasks/"+projectID, rows, taskListColumns(), la.PageSize, s.pages)
	if err != nil {
		return nil, err
	}
	applyListArgs(t, la)
	return viewResult(t.View())
}

func taskInputFromRequest(req mcp.CallToolRequest) service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Status:      req.GetString("status", ""),
		Priority:    req.GetString("priority", ""),
		DueDate:     req.GetString("dueDate", ""),
		Assignee:    req.GetString("assignee", ""),
	}
}

func (s *Server) handleCreateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("projectId", "")
	if projectID == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	t, err := s.tasks.CreateTask(ctx, projectID, taskInputFromRequest(req))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return jsonResult(t)
}

func (s *Server) handleUpdateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("taskId", "")
	if taskID == "" {
		return nil, fmt.Errorf("taskId is required")
	}
	t, err := s.tasks.UpdateTask(ctx, taskID, taskInputFromRequest(req))
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return jsonResult(t)
}

func (s *Server) handleDeleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("taskId", "")
	if taskID == "" {
		return nil, fmt.Errorf("taskId is required")
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return textResult(fmt.Sprintf("Task %s deleted", taskID)), nil
}
