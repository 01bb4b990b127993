package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring systems to verify that the
// process is up. It never touches storage.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
