package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taskboard/internal/service"
	"taskboard/internal/storage"
	"taskboard/internal/table"
)

// ─────────────────────────────────────────────────────────────
// HTTP server — REST API over the services
// ─────────────────────────────────────────────────────────────

// Server wires the services into an echo router. All list endpoints run
// through the table pipeline; the shared PageStore keeps each list's
// page position across requests.
type Server struct {
	echo        *echo.Echo
	projects    *service.ProjectService
	tasks       *service.TaskService
	imports     *service.ImportService
	connections *service.ConnectionService
	events      *Broadcaster
	pages       *table.PageStore
}

// Options carries the dependencies for a Server.
type Options struct {
	Projects    *service.ProjectService
	Tasks       *service.TaskService
	Imports     *service.ImportService
	Connections *service.ConnectionService
	Events      *Broadcaster
	StaticDir   string // SPA assets; empty disables static serving
}

// New builds the router and registers all routes.
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		echo:        e,
		projects:    opts.Projects,
		tasks:       opts.Tasks,
		imports:     opts.Imports,
		connections: opts.Connections,
		events:      opts.Events,
		pages:       table.NewPageStore(),
	}

	api := e.Group("/api")

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)
	api.GET("/projects/:id", s.getProject)
	api.PUT("/projects/:id", s.updateProject)
	api.DELETE("/projects/:id", s.deleteProject)

	api.GET("/projects/:id/tasks", s.listTasks)
	api.POST("/projects/:id/tasks", s.createTask)
	api.GET("/tasks/:id", s.getTask)
	api.PUT("/tasks/:id", s.updateTask)
	api.DELETE("/tasks/:id", s.deleteTask)

	api.GET("/imports", s.listImportJobs)
	api.POST("/imports", s.createImportJob)
	api.GET("/imports/sources", s.listImportSources)
	api.POST("/imports/preview", s.previewImportSource)
	api.GET("/imports/:id", s.getImportJob)
	api.PUT("/imports/:id", s.updateImportJob)
	api.DELETE("/imports/:id", s.deleteImportJob)
	api.POST("/imports/:id/run", s.runImportJob)
	api.GET("/imports/:id/logs", s.listImportLogs)

	api.GET("/connections", s.listConnections)
	api.POST("/connections", s.createConnection)
	api.GET("/connections/:id", s.getConnection)
	api.PUT("/connections/:id", s.updateConnection)
	api.DELETE("/connections/:id", s.deleteConnection)
	api.POST("/connections/:id/test", s.testConnection)
	api.GET("/connections/:id/schema", s.introspectConnection)

	if s.events != nil {
		api.GET("/events", s.events.Handler())
	}

	if opts.StaticDir != "" {
		e.Static("/", opts.StaticDir)
	}

	return s
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ── Shared helpers ─────────────────────────────────────────

type messageBody struct {
	Message string `json:"message"`
}

// fail maps service errors to HTTP responses. Not-found wins over the
// suggested status so stale IDs always surface as 404.
func fail(c echo.Context, status int, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
	}
	return c.JSON(status, messageBody{Message: err.Error()})
}

// listPage is the JSON shape of one rendered table page.
type listPage[T any] struct {
	Rows            []T            `json:"rows"`
	Headers         []table.Header `json:"headers"`
	PageIndex       int            `json:"pageIndex"`
	PageCount       int            `json:"pageCount"`
	PageSize        int            `json:"pageSize"`
	CanPreviousPage bool           `json:"canPreviousPage"`
	CanNextPage     bool           `json:"canNextPage"`
	FilteredCount   int            `json:"filteredCount"`
	TotalCount      int            `json:"totalCount"`
	Summary         string         `json:"summary"`
}

func toListPage[T any](v table.View[T]) listPage[T] {
	return listPage[T]{
		Rows:            v.Rows,
		Headers:         v.Headers,
		PageIndex:       v.PageIndex,
		PageCount:       v.PageCount,
		PageSize:        v.PageSize,
		CanPreviousPage: v.CanPreviousPage,
		CanNextPage:     v.CanNextPage,
		FilteredCount:   v.FilteredCount,
		TotalCount:      v.TotalCount,
		Summary:         v.Summary,
	}
}

// applyListParams wires the shared list query parameters onto a table:
//
//	q        global filter text
//	sort,dir sort column and direction ("asc"/"desc", else cleared)
//	page     explicit page index; absent keeps the stored position
//	nav      "next" | "prev" | "first" | "last" relative navigation
func applyListParams[T any](c echo.Context, t *table.Table[T]) {
	t.SetGlobalFilter(c.QueryParam("q"))

	if sortCol := c.QueryParam("sort"); sortCol != "" {
		t.SetSort(sortCol, table.ParseDirection(c.QueryParam("dir")))
	}

	if page := c.QueryParam("page"); page != "" {
		if n, err := strconv.Atoi(page); err == nil {
			t.SetPageIndex(n)
		}
	}

	switch c.QueryParam("nav") {
	case "next":
		t.NextPage()
	case "prev":
		t.PreviousPage()
	case "first":
		t.FirstPage()
	case "last":
		t.LastPage()
	}
}

// pageSizeParam parses pageSize, leaving 0 for the table default.
func pageSizeParam(c echo.Context) int {
	if raw := c.QueryParam("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
