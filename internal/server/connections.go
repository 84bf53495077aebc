package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/internal/service"
)

// ── Database connection handlers ───────────────────────────

func (s *Server) listConnections(c echo.Context) error {
	conns, err := s.connections.ListConnections()
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, conns)
}

func (s *Server) getConnection(c echo.Context) error {
	conn, err := s.connections.GetConnection(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, conn)
}

func (s *Server) createConnection(c echo.Context) error {
	var input service.CreateConnectionInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	conn, err := s.connections.CreateConnection(input)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, conn)
}

func (s *Server) updateConnection(c echo.Context) error {
	var input service.CreateConnectionInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	if err := s.connections.UpdateConnection(c.Param("id"), input); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	conn, err := s.connections.GetConnection(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, conn)
}

func (s *Server) deleteConnection(c echo.Context) error {
	if err := s.connections.DeleteConnection(c.Param("id")); err != nil {
		return fail(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) testConnection(c echo.Context) error {
	if err := s.connections.TestConnection(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, http.StatusBadGateway, err)
	}
	return c.JSON(http.StatusOK, messageBody{Message: "ok"})
}

func (s *Server) introspectConnection(c echo.Context) error {
	schema, err := s.connections.Introspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadGateway, err)
	}
	return c.JSON(http.StatusOK, schema)
}
