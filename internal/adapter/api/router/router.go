package router

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/adapter/api/handler"
	"craftmarket/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	roomHandler *handler.RoomHandler,
	messageHandler *handler.MessageHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupRoomRouter(e, roomHandler, messageHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
