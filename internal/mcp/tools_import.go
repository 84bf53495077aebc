package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"taskboard/internal/importer"
	"taskboard/internal/service"
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("create_import_job",
		mcp.WithDescription("Create a task import job (source → project). Transforms (filter, rename, select, sort, limit, dedupe) are applied in sequence between source and destination."),
		mcp.WithString("name", mcp.Description("Job name"), mcp.Required()),
		mcp.WithString("sourceType", mcp.Description("Import source type (use list_import_sources to see available types)"), mcp.Required()),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as JSON"), mcp.Required()),
		mcp.WithString("targetProjectId", mcp.Description("Project the tasks are imported into"), mcp.Required()),
		mcp.WithString("fieldMappingJSON", mcp.Description(`Optional JSON object mapping task fields to source fields, e.g. {"title":"summary","assignee":"owner"}. Defaults to same-name matching.`)),
		mcp.WithString("transformsJSON", mcp.Description(`Optional JSON array of transforms. Each transform has {type, config}. Available types:
- filter: {field, op (eq|neq|gt|lt|contains), value} — drop rows not matching condition
- rename: {mapping: {oldName: newName}} — rename columns
- select: {fields: ["col1","col2"]} — keep only specified columns
- sort: {field, direction (asc|desc)} — sort rows
- limit: {count} — cap number of rows
- dedupe: use dedupeKey param instead
Example: [{"type":"filter","config":{"field":"status","op":"neq","value":"done"}}]`)),
		mcp.WithString("syncMode", mcp.Description("replace | append (default append). Replace clears previously imported tasks but keeps hand-created ones.")),
		mcp.WithString("dedupeKey", mcp.Description("Source field for deduplication (optional)")),
		mcp.WithString("triggerType", mcp.Description("manual | schedule | file_watch (default manual)")),
		mcp.WithString("triggerConfig", mcp.Description("Cron expression for schedule, file path for file_watch")),
	), s.handleCreateImportJob)

	s.mcp.AddTool(mcp.NewTool("list_import_jobs",
		mcp.WithDescription("List all import jobs with their last run status"),
	), s.handleListImportJobs)

	s.mcp.AddTool(mcp.NewTool("list_import_sources",
		mcp.WithDescription("List available import source types with their configuration schemas"),
	), s.handleListImportSources)

	s.mcp.AddTool(mcp.NewTool("run_import_job",
		mcp.WithDescription("🛑 DESTRUCTIVE: Execute an import job. In replace mode this clears previously imported tasks in the target project."),
		mcp.WithString("jobId", mcp.Description("Import job ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRunImportJob)

	s.mcp.AddTool(mcp.NewTool("preview_import_source",
		mcp.WithDescription("Preview rows from an import source without writing anything"),
		mcp.WithString("sourceType", mcp.Description("Source type"), mcp.Required()),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as JSON"), mcp.Required()),
	), s.handlePreviewImportSource)
}

func (s *Server) handleCreateImportJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	sourceConfigStr := req.GetString("sourceConfigJSON", "")
	var sourceConfig map[string]any
	if err := json.Unmarshal([]byte(sourceConfigStr), &sourceConfig); err != nil {
		return nil, fmt.Errorf("parse sourceConfig: %w", err)
	}

	// transformsJSON may come as a string or as a raw JSON array
	var transformsStr string
	switch v := args["transformsJSON"].(type) {
	case string:
		transformsStr = v
	default:
		if v != nil {
			b, _ := json.Marshal(v)
			transformsStr = string(b)
		}
	}
	var transforms []importer.TransformConfig
	if transformsStr != "" {
		if err := json.Unmarshal([]byte(transformsStr), &transforms); err != nil {
			return nil, fmt.Errorf("parse transforms: %w", err)
		}
	}

	var fieldMapping map[string]string
	if raw := req.GetString("fieldMappingJSON", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fieldMapping); err != nil {
			return nil, fmt.Errorf("parse fieldMapping: %w", err)
		}
	}

	input := service.CreateImportJobInput{
		Name:            req.GetString("name", ""),
		SourceType:      req.GetString("sourceType", ""),
		SourceConfig:    sourceConfig,
		Transforms:      transforms,
		TargetProjectID: req.GetString("targetProjectId", ""),
		FieldMapping:    fieldMapping,
		SyncMode:        req.GetString("syncMode", ""),
		DedupeKey:       req.GetString("dedupeKey", ""),
		TriggerType:     req.GetString("triggerType", ""),
		TriggerConfig:   req.GetString("triggerConfig", ""),
		Enabled:         true,
	}
	job, err := s.imports.CreateJob(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	return jsonResult(job)
}

func (s *Server) handleListImportJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.imports.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}
	return jsonResult(jobs)
}

func (s *Server) handleListImportSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.imports.ListSources())
}

func (s *Server) handleRunImportJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := req.GetString("jobId", "")
	if jobID == "" {
		return nil, fmt.Errorf("jobId is required")
	}
	result, err := s.imports.RunJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("run import job: %w", err)
	}
	return jsonResult(result)
}

func (s *Server) handlePreviewImportSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceType := req.GetString("sourceType", "")
	sourceConfigStr := req.GetString("sourceConfigJSON", "")
	if sourceType == "" || sourceConfigStr == "" {
		return nil, fmt.Errorf("sourceType and sourceConfigJSON are required")
	}
	preview, err := s.imports.PreviewSource(ctx, sourceType, sourceConfigStr)
	if err != nil {
		return nil, fmt.Errorf("preview source: %w", err)
	}
	return jsonResult(preview)
}
