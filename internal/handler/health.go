package handler // liveness probe

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe shared by the greeter and the auditor.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
