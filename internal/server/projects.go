package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/domain"
	"taskboard/internal/service"
	"taskboard/internal/table"
)

// ── Project handlers ───────────────────────────────────────

// projectColumns defines the project list table. Name and description
// carry the global filter; timestamps sort chronologically via the
// time.Time accessor.
func projectColumns() []table.Column[domain.Project] {
	return []table.Column[domain.Project]{
		{
			ID:         "name",
			Label:      "Name",
			Value:      func(p domain.Project) any { return p.Name },
			Sortable:   true,
			Filterable: true,
		},
		{
			ID:         "description",
			Label:      "Description",
			Value:      func(p domain.Project) any { return p.Description },
			Filterable: true,
		},
		{
			ID:         "status",
			Label:      "Status",
			Value:      func(p domain.Project) any { return string(p.Status) },
			Sortable:   true,
			Filterable: true,
		},
		{
			ID:       "createdAt",
			Label:    "Created",
			Value:    func(p domain.Project) any { return p.CreatedAt },
			Sortable: true,
		},
	}
}

func (s *Server) listProjects(c echo.Context) error {
	rows, err := s.projects.ListProjects()
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}

	t, err := table.New("projects", rows, projectColumns(), pageSizeParam(c), s.pages)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	applyListParams(c, t)

	return c.JSON(http.StatusOK, toListPage(t.View()))
}

func (s *Server) getProject(c echo.Context) error {
	p, err := s.projects.GetProject(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) createProject(c echo.Context) error {
	var input service.CreateProjectInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	p, err := s.projects.CreateProject(c.Request().Context(), input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProject(c echo.Context) error {
	var input service.CreateProjectInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	p, err := s.projects.UpdateProject(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c echo.Context) error {
	if err := s.projects.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
