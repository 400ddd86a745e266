package api

import (
	"github.com/labstack/echo/v4"
	"github.com/modfin/brevq"
	"net/http"
	"strconv"
)

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return brevq.Invalid("", "could not parse body, %v", err)
	}
	return nil
}

func (s *Server) schedule(c echo.Context) error {
	var req brevq.ScheduleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	receipt, err := s.queue.Schedule(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, receipt)
}

func (s *Server) queueBatch(c echo.Context) error {
	var req brevq.BatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	receipt, err := s.queue.QueueBatch(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, receipt)
}

func (s *Server) batch(c echo.Context) error {
	status, err := s.queue.Batch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) list(c echo.Context) error {
	page, err := intParam(c, "page")
	if err != nil {
		return err
	}
	pageSize, err := intParam(c, "pageSize")
	if err != nil {
		return err
	}
	res, err := s.queue.List(c.Request().Context(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) get(c echo.Context) error {
	email, err := s.queue.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, email)
}

func (s *Server) emailLog(c echo.Context) error {
	entries, err := s.queue.Log(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) update(c echo.Context) error {
	var req brevq.UpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.ID = c.Param("id")
	email, err := s.queue.Update(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, email)
}

func (s *Server) cancel(c echo.Context) error {
	err := s.queue.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func intParam(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, brevq.Invalid(name, "must be an integer, got %q", v)
	}
	return i, nil
}
