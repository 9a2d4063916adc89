package router

import (
	"github.com/labstack/echo/v4"

	"craftmarket/internal/adapter/api/handler"
	"craftmarket/internal/adapter/api/middleware"
)

// SetupRoomRouter mounts the room, message and customization endpoints. All of
// them require authentication.
func SetupRoomRouter(e *echo.Echo, roomHandler *handler.RoomHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	roomGroup := e.Group("/v1/rooms")
	roomGroup.Use(authMiddleware.Authenticate)

	roomGroup.POST("", roomHandler.CreateRoom)                // POST /v1/rooms - find or create a room
	roomGroup.GET("", roomHandler.ListRooms)                  // GET /v1/rooms - caller's rooms
	roomGroup.GET("/:id", roomHandler.GetRoom)                // GET /v1/rooms/:id
	roomGroup.GET("/:id/verify", roomHandler.VerifyAccess)    // GET /v1/rooms/:id/verify
	roomGroup.GET("/:id/messages", messageHandler.GetHistory) // GET /v1/rooms/:id/messages - history + read receipt
	roomGroup.DELETE("/:id", roomHandler.DeleteRoom)          // DELETE /v1/rooms/:id - soft delete

	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)
	messageGroup.POST("", messageHandler.SendMessage) // POST /v1/messages - room_id in body

	customizationGroup := e.Group("/v1/customizations")
	customizationGroup.Use(authMiddleware.Authenticate)
	customizationGroup.PUT("/:id", roomHandler.UpdateCustomization) // PUT /v1/customizations/:id - :id is the room id
}
