package router

import (
	"github.com/labstack/echo/v4"

	"mingle/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the real-time endpoint. Authentication
// happens inside the handler because browsers cannot attach headers to the
// upgrade request.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws/chat", wsHandler.HandleWebSocket)
}
