package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── taskboard://projects ───────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"taskboard://projects",
		"All Projects",
		mcp.WithMIMEType("application/json"),
	), s.handleProjectsResource)

	// ── taskboard://project/{projectId}/tasks ──────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"taskboard://project/{projectId}/tasks",
			"Tasks in a Project",
		),
		s.handleProjectTasksResource,
	)
}

func (s *Server) handleProjectsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := s.projects.ListProjects()
	if err != nil {
		return nil, err
	}

	type projectSummary struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}

	var summaries []projectSummary
	for _, p := range projects {
		summaries = append(summaries, projectSummary{ID: p.ID, Name: p.Name, Status: string(p.Status)})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "taskboard://projects",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleProjectTasksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	projectID := projectIDFromURI(uri)
	if projectID == "" {
		return nil, fmt.Errorf("could not extract projectId from URI: %s", uri)
	}

	tasks, err := s.tasks.ListTasks(projectID)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(tasks, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// projectIDFromURI extracts the ID from "taskboard://project/{id}/tasks".
func projectIDFromURI(uri string) string {
	const prefix = "taskboard://project/"
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}
