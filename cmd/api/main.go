package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mingle/internal/adapter/api"
	"mingle/internal/adapter/api/handler"
	apimiddleware "mingle/internal/adapter/api/middleware"
	"mingle/internal/adapter/api/router"
	"mingle/internal/adapter/repository"
	"mingle/internal/infrastructure/firebase"
	"mingle/internal/infrastructure/ratelimit"
	"mingle/internal/infrastructure/websocket"
	"mingle/internal/usecase"
	"mingle/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	clients, err := firebase.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer clients.Close()

	messageRepo := repository.NewFirestoreMessageRepository(clients.Firestore)
	chatRoomRepo := repository.NewFirestoreChatRoomRepository(clients.Firestore)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	messagingUseCase := usecase.NewMessagingUseCase(messageRepo, rateLimiter)
	tempMessagingUseCase := usecase.NewTempMessagingUseCase(chatRoomRepo, wsManager, rateLimiter)

	messageHandler := handler.NewMessageHandler(messagingUseCase)
	tempMessageHandler := handler.NewTempMessageHandler(tempMessagingUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, clients.Auth, tempMessagingUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(clients.Auth)

	router.Setup(e)
	router.SetupMessageRouter(e, messageHandler, tempMessageHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
