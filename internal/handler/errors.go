package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/logging"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// APIError is a client-facing failure rendered as {"error": Message}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func badRequest(msg string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: msg}
}

// notFound with an empty message renders the uniform "Not found".
func notFound(msg string) *APIError {
	if msg == "" {
		msg = "Not found"
	}
	return &APIError{Status: http.StatusNotFound, Message: msg}
}

var errNotJSON = badRequest("Not a JSON")

// ErrorHandler is the echo.HTTPErrorHandler of the API. Every error becomes a
// JSON object with a single "error" key; unexpected errors are logged and
// hidden behind a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
		status, msg = apiErr.Status, apiErr.Message
	case errors.Is(err, storage.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.As(err, &httpErr):
		status = httpErr.Code
		switch status {
		case http.StatusNotFound:
			msg = "Not found"
		default:
			msg = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		logging.From(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, echo.Map{"error": msg})
	}
	if err != nil {
		logging.From(c.Request().Context()).Error().Err(err).Msg("write error response")
	}
}
