package api

import (
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/modfin/brevq"
	"github.com/sirupsen/logrus"
	"net/http"
)

func errorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := toResponse(err)
		if code >= http.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.WithError(err).Warn("could not write error response")
		}
	}
}

func toResponse(err error) (int, brevq.ErrorResponse) {
	var he *echo.HTTPError
	var ve *brevq.ValidationError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, brevq.ErrorResponse{Error: ve.Reason, Field: ve.Field}
	case errors.Is(err, brevq.ErrValidation):
		return http.StatusBadRequest, brevq.ErrorResponse{Error: err.Error()}
	case errors.Is(err, brevq.ErrNotFound):
		return http.StatusNotFound, brevq.ErrorResponse{Error: err.Error()}
	case errors.Is(err, brevq.ErrLocked), errors.Is(err, brevq.ErrConflict):
		return http.StatusConflict, brevq.ErrorResponse{Error: err.Error()}
	case errors.As(err, &he):
		return he.Code, brevq.ErrorResponse{Error: fmt.Sprint(he.Message)}
	}
	return http.StatusInternalServerError, brevq.ErrorResponse{Error: "internal server error"}
}
