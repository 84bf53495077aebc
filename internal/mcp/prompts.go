package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("project_kickoff",
		mcp.WithPromptDescription("Set up a new project with an initial task breakdown"),
		mcp.WithArgument("projectName",
			mcp.ArgumentDescription("Name of the project to create"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the project should achieve"),
			mcp.RequiredArgument(),
		),
	), s.handleKickoffPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("triage_backlog",
		mcp.WithPromptDescription("Review a project's open tasks and adjust priorities and due dates"),
		mcp.WithArgument("projectId",
			mcp.ArgumentDescription("Project whose backlog should be triaged"),
			mcp.RequiredArgument(),
		),
	), s.handleTriagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("import_pipeline",
		mcp.WithPromptDescription("Set up a source → project import job"),
		mcp.WithArgument("sourceType",
			mcp.ArgumentDescription("Import source type (e.g. csv_file, http, database)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What this import does"),
			mcp.RequiredArgument(),
		),
	), s.handleImportPipelinePrompt)
}

func (s *Server) handleKickoffPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := req.Params.Arguments["projectName"]
	goal := req.Params.Arguments["goal"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Kick off project: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Set up a new project "%s" with the goal: %s. Follow these steps:

1. Create the project with create_project, writing a one-paragraph description from the goal
2. Break the goal into 5-10 concrete tasks and add each with create_task
3. Assign priorities: blockers high, groundwork medium, polish low
4. Give time-sensitive tasks realistic due dates

Finish by listing the tasks with list_tasks sorted by priority descending.`, projectName, goal),
				},
			},
		},
	}, nil
}

func (s *Server) handleTriagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := req.Params.Arguments["projectId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Triage backlog of project %s", projectID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Triage the backlog of project "%s". Follow these steps:

1. Page through the open tasks with list_tasks (filter out done tasks with query or by checking status)
2. Flag tasks past their due date and raise their priority with update_task
3. Lower the priority of stale tasks that no longer look urgent
4. Suggest tasks that could be closed or merged

Summarize what you changed and why.`, projectID),
				},
			},
		},
	}, nil
}

func (s *Server) handleImportPipelinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sourceType := req.Params.Arguments["sourceType"]
	description := req.Params.Arguments["description"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Set up a %s import", sourceType),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Set up a task import: %s. Follow these steps:

1. Check the "%s" source's configuration schema with list_import_sources
2. Preview the data with preview_import_source and note which fields map to task fields
3. Pick or create the target project
4. Create the job with create_import_job, adding a fieldMappingJSON if the source fields are not named like task fields, and transforms to drop rows that should not become tasks
5. Run it with run_import_job and report rows read vs written

Use syncMode "replace" if the source is the single source of truth, "append" otherwise.`, description, sourceType),
				},
			},
		},
	}, nil
}
