package mcpserver_test

import (
	"context"
	"testing"

	mcpserver "taskboard/internal/mcp"
	"taskboard/internal/service"
	"taskboard/internal/storage"

	_ "taskboard/internal/importer/sources"
)

func newMCPServer(t *testing.T) *mcpserver.Server {
	t.Helper()
	db, err := storage.Open("sqlite", t.TempDir()+"/taskboard.db")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	projects := storage.NewProjectStore(db)
	tasks := storage.NewTaskStore(db)
	imports := storage.NewImportStore(db)
	emitter := &service.MockEmitter{}

	projSvc := service.NewProjectService(projects, tasks, emitter)
	taskSvc := service.NewTaskService(tasks, projects, emitter)
	impSvc := service.NewImportService(context.Background(), imports, tasks, projects, emitter, 0)
	t.Cleanup(impSvc.Stop)

	return mcpserver.New(mcpserver.Deps{
		Projects: projSvc,
		Tasks:    taskSvc,
		Imports:  impSvc,
	})
}

func TestNew_BuildsServer(t *testing.T) {
	srv := newMCPServer(t)
	if srv == nil {
		t.Fatal("expected non-nil MCP server")
	}
}

func TestNew_NilConnectionsTolerated(t *testing.T) {
	// The connection service is optional in stdio mode; registration
	// must not dereference it.
	srv := mcpserver.New(mcpserver.Deps{})
	if srv == nil {
		t.Fatal("expected non-nil MCP server with empty deps")
	}
}
