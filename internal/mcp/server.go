package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"taskboard/internal/service"
	"taskboard/internal/table"
)

// Server is the MCP server for the task board.
// It exposes tools, resources, and prompts so AI agents can manage
// projects, tasks, and import jobs over stdio.
type Server struct {
	mcp *server.MCPServer

	// Services (injected from main)
	projects    *service.ProjectService
	tasks       *service.TaskService
	imports     *service.ImportService
	connections *service.ConnectionService

	// List tools share the page store, so an agent paging through a
	// list resumes where it left off, same as the web UI.
	pages *table.PageStore
}

// Deps holds all dependencies passed to the MCP server.
type Deps struct {
	Projects    *service.ProjectService
	Tasks       *service.TaskService
	Imports     *service.ImportService
	Connections *service.ConnectionService
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		projects:    deps.Projects,
		tasks:       deps.Tasks,
		imports:     deps.Imports,
		connections: deps.Connections,
		pages:       table.NewPageStore(),
	}

	s.mcp = server.NewMCPServer(
		"taskboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerProjectTools()
	s.registerTaskTools()
	s.registerImportTools()
	s.registerConnectionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

// listArgs extracts the shared list-tool arguments (query/sort/page).
type listArgs struct {
	Query    string
	SortCol  string
	SortDir  table.Direction
	Page     int
	HasPage  bool
	PageSize int
}

func parseListArgs(args map[string]any) listArgs {
	la := listArgs{}
	la.Query, _ = args["query"].(string)
	la.SortCol, _ = args["sort"].(string)
	if dir, ok := args["dir"].(string); ok {
		la.SortDir = table.ParseDirection(dir)
	}
	if page, ok := args["page"].(float64); ok {
		la.Page = int(page)
		la.HasPage = true
	}
	if size, ok := args["pageSize"].(float64); ok && size > 0 {
		la.PageSize = int(size)
	}
	return la
}

// applyListArgs wires parsed list arguments onto a table.
func applyListArgs[T any](t *table.Table[T], la listArgs) {
	t.SetGlobalFilter(la.Query)
	if la.SortCol != "" {
		t.SetSort(la.SortCol, la.SortDir)
	}
	if la.HasPage {
		t.SetPageIndex(la.Page)
	}
}

// viewResult renders a table view as a JSON tool result with rows and
// the pagination summary.
func viewResult[T any](v table.View[T]) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"rows":            v.Rows,
		"pageIndex":       v.PageIndex,
		"pageCount":       v.PageCount,
		"canPreviousPage": v.CanPreviousPage,
		"canNextPage":     v.CanNextPage,
		"filteredCount":   v.FilteredCount,
		"totalCount":      v.TotalCount,
		"summary":         v.Summary,
	})
}
