package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

// ── Import job handlers ────────────────────────────────────

func (s *Server) listImportJobs(c echo.Context) error {
	jobs, err := s.imports.ListJobs()
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

func (s *Server) getImportJob(c echo.Context) error {
	job, err := s.imports.GetJob(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) createImportJob(c echo.Context) error {
	var input service.CreateImportJobInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	job, err := s.imports.CreateJob(c.Request().Context(), input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, job)
}

func (s *Server) updateImportJob(c echo.Context) error {
	var input service.CreateImportJobInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	if err := s.imports.UpdateJob(c.Request().Context(), c.Param("id"), input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	job, err := s.imports.GetJob(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) deleteImportJob(c echo.Context) error {
	if err := s.imports.DeleteJob(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) runImportJob(c echo.Context) error {
	result, err := s.imports.RunJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		// The run result carries the failure detail; conflict for a
		// job that is already running, 422 for a failed run.
		status := http.StatusUnprocessableEntity
		if result == nil {
			status = http.StatusConflict
		}
		if result != nil {
			return c.JSON(status, result)
		}
		return fail(c, status, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) listImportLogs(c echo.Context) error {
	if _, err := s.imports.GetJob(c.Param("id")); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	logs, err := s.imports.ListRunLogs(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (s *Server) listImportSources(c echo.Context) error {
	return c.JSON(http.StatusOK, s.imports.ListSources())
}

type previewRequest struct {
	SourceType   string         `json:"sourceType"`
	SourceConfig map[string]any `json:"sourceConfig"`
}

func (s *Server) previewImportSource(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	cfgJSON, err := json.Marshal(req.SourceConfig)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	preview, err := s.imports.PreviewSource(c.Request().Context(), req.SourceType, string(cfgJSON))
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, preview)
}
