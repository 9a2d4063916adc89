package router

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/adapter/api/handler"
)

// SetupDevRouter mounts development-only helpers. Call only when the
// environment is development.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
