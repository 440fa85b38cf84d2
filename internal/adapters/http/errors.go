package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// CustomValidator validates request DTOs with the shared entity validator
type CustomValidator struct{}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return entities.ValidateStruct("request", i)
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		ve *entities.ValidationError
		nf *entities.NotFoundError
		ce *entities.ConflictError
		de *entities.DecodeError
		te *entities.TransportError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &de):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &te):
		return http.StatusBadGateway
	case errors.Is(err, entities.ErrInvalidCredentials), errors.Is(err, entities.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders errors as ports.ErrorResponse
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			body ports.ErrorResponse
		)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			body.Message = fmt.Sprint(he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else {
			code = statusOf(err)
			body.Message = err.Error()
			var ve *entities.ValidationError
			if errors.As(err, &ve) {
				body.Fields = ve.Fields
			}
		}

		if code == http.StatusInternalServerError {
			log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
			body.Message = http.StatusText(code)
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Errorw("Error sending response", "error", err)
		}
	}
}
