package router

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter mounts the realtime endpoint. Authentication happens in
// the handler because browsers cannot attach headers to websocket dials.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
