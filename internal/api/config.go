package api

import (
	"github.com/labstack/echo/v4"
	"github.com/modfin/brevq"
	"net/http"
)

func (s *Server) status(c echo.Context) error {
	status, err := s.queue.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) settings(c echo.Context) error {
	settings, err := s.queue.Settings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c echo.Context) error {
	var update brevq.SettingsUpdate
	if err := bind(c, &update); err != nil {
		return err
	}
	settings, err := s.queue.UpdateSettings(c.Request().Context(), update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}
