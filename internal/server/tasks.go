package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/table"
)

// ── Task handlers ──────────────────────────────────────────

// taskColumns defines the per-project task table. Priority sorts by
// weight rather than alphabetically, so high > medium > low holds.
func taskColumns() []table.Column[domain.Task] {
	return []table.Column[domain.Task]{
		{
			ID:         "title",
			Label:      "Title",
			Value:      func(t domain.Task) any { return t.Title },
			Sortable:   true,
			Filterable: true,
		},
		{
			ID:         "status",
			Label:      "Status",
			Value:      func(t domain.Task) any { return string(t.Status) },
			Sortable:   true,
			Filterable: true,
		},
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
			Render: func(t domain.Task) string {
				if t.DueDate == nil {
					return ""
				}
				return t.DueDate.Format("2006-01-02")
			},
			Sortable: true,
		},
		{
			ID:         "assignee",
			Label:      "Assignee",
			Value:      func(t domain.Task) any { return t.Assignee },
			Sortable:   true,
			Filterable: true,
		},
	}
}

func (s *Server) listTasks(c echo.Context) error {
	projectID := c.Param("id")
	if _, err := s.projects.GetProject(projectID); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	rows, err := s.tasks.ListTasks(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	// Each project's task list keeps its own page position.
	t, err := table.New("tasks/"+projectID, rows, taskColumns(), pageSizeParam(c), s.pages)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	applyListParams(c, t)

	return c.JSON(http.StatusOK, toListPage(t.View()))
}

func (s *Server) getTask(c echo.Context) error {
	t, err := s.tasks.GetTask(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) createTask(c echo.Context) error {
	var input service.CreateTaskInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	t, err := s.tasks.CreateTask(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTask(c echo.Context) error {
	var input service.CreateTaskInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	t, err := s.tasks.UpdateTask(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.tasks.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
