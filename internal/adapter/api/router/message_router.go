package router

import (
	"github.com/labstack/echo/v4"

	"mingle/internal/adapter/api/handler"
	"mingle/internal/adapter/api/middleware"
)

// SetupMessageRouter wires the durable and ephemeral messaging endpoints.
// Every endpoint requires an authenticated caller.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, tempMessageHandler *handler.TempMessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.POST("", messageHandler.SendMessage)                     // POST /v1/messages
	messages.GET("/:receiverId", messageHandler.GetMessages)          // GET  /v1/messages/:receiverId?senderId=
	messages.PUT("/:id/status", messageHandler.UpdateMessageStatus)   // PUT  /v1/messages/:id/status

	tempMessages := e.Group("/v1/temp-messages")
	tempMessages.Use(authMiddleware.Authenticate)

	tempMessages.POST("", tempMessageHandler.SendTempMessage)            // POST /v1/temp-messages
	tempMessages.GET("/:receiverId", tempMessageHandler.GetTempMessages) // GET  /v1/temp-messages/:receiverId?senderId=

	tempChats := e.Group("/v1/temp-chats")
	tempChats.Use(authMiddleware.Authenticate)

	tempChats.GET("", tempMessageHandler.GetTempChats)                      // GET /v1/temp-chats
	tempChats.PUT("/:chatId/read", tempMessageHandler.MarkMessagesAsRead)   // PUT /v1/temp-chats/:chatId/read
}
