package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
	ws "mingle/internal/infrastructure/websocket"
	"mingle/internal/usecase"
	"mingle/pkg/logger"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production deployments
	},
}

// WebSocketHandler bridges connected clients to the live-subscription layer.
// The first member joining a room attaches one store subscription for it;
// the last member leaving tears it down.
type WebSocketHandler struct {
	wsManager     *ws.Manager
	authClient    *auth.Client
	tempMessaging *usecase.TempMessagingUseCase

	mu       sync.Mutex
	roomSubs map[string]repository.UnsubscribeFunc
}

func NewWebSocketHandler(wsManager *ws.Manager, authClient *auth.Client, tempMessaging *usecase.TempMessagingUseCase) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager:     wsManager,
		authClient:    authClient,
		tempMessaging: tempMessaging,
		roomSubs:      make(map[string]repository.UnsubscribeFunc),
	}
	wsManager.OnRoomEmpty = h.dropRoomSubscription
	return h
}

// HandleWebSocket upgrades GET /ws/chat. Browsers cannot set headers on the
// upgrade request, so the ID token also travels as a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	idToken := c.QueryParam("token")
	if idToken == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
			idToken = parts[1]
		}
	}
	if idToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	token, err := h.authClient.VerifyIDToken(c.Request().Context(), idToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upgrade connection")
	}

	client := ws.NewClient(token.UID, conn)
	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager, h.handleFrame)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) handleFrame(client *ws.Client, message []byte) {
	var frame ws.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		h.sendError(client, "Invalid message format")
		return
	}

	switch frame.Type {
	case ws.FrameTypePing:
		h.sendFrame(client, ws.Frame{Type: ws.FrameTypePong})

	case ws.FrameTypeJoinChatRoom:
		h.handleJoin(client, frame.ChatID)

	case ws.FrameTypeLeaveChatRoom:
		h.handleLeave(client, frame.ChatID)

	default:
		logger.Debug("Unknown frame type %q from client %s", frame.Type, client.UserID)
		h.sendError(client, "Unknown message type")
	}
}

func (h *WebSocketHandler) handleJoin(client *ws.Client, chatID string) {
	if chatID == "" {
		h.sendError(client, "Missing chat_id")
		return
	}

	room, err := h.tempMessaging.GetMessages(context.Background(), chatID)
	if err != nil {
		h.sendError(client, "Failed to load chat room")
		return
	}
	// A room that exists admits only its participants. A not-yet-created
	// room admits only the users named in its key, so a third party cannot
	// camp on a guessable key before the conversation starts.
	if len(room.Participants) > 0 {
		if !lo.Contains(room.Participants, client.UserID) {
			h.sendError(client, "Not a participant in this chat")
			return
		}
	} else if !entity.KeyNamesParticipant(chatID, client.UserID) {
		h.sendError(client, "Not a participant in this chat")
		return
	}

	h.wsManager.JoinChatRoom(chatID, client.UserID)
	h.ensureRoomSubscription(chatID)
	logger.Info("Client %s joined chat room %s", client.UserID, chatID)
}

func (h *WebSocketHandler) handleLeave(client *ws.Client, chatID string) {
	if chatID == "" {
		h.sendError(client, "Missing chat_id")
		return
	}

	if stillMembers := h.wsManager.LeaveChatRoom(chatID, client.UserID); !stillMembers {
		h.dropRoomSubscription(chatID)
	}
	logger.Info("Client %s left chat room %s", client.UserID, chatID)
}

// ensureRoomSubscription attaches a single store subscription per room that
// fans every observed document state out to the room's connected members.
func (h *WebSocketHandler) ensureRoomSubscription(chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.roomSubs[chatID]; ok {
		return
	}

	unsubscribe, err := h.tempMessaging.SubscribeToMessages(context.Background(), chatID, func(messages []entity.TempMessage) {
		frame := ws.Frame{
			Type:      ws.FrameTypeRoomMessages,
			ChatID:    chatID,
			Data:      messages,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			logger.Error("Failed to marshal room %s snapshot: %v", chatID, err)
			return
		}
		h.wsManager.SendToChatRoom(chatID, payload, "")
	})
	if err != nil {
		logger.Error("Failed to subscribe to chat room %s: %v", chatID, err)
		return
	}
	h.roomSubs[chatID] = unsubscribe
}

func (h *WebSocketHandler) dropRoomSubscription(chatID string) {
	h.mu.Lock()
	unsubscribe, ok := h.roomSubs[chatID]
	if ok {
		delete(h.roomSubs, chatID)
	}
	h.mu.Unlock()

	if ok {
		unsubscribe()
	}
}

func (h *WebSocketHandler) sendFrame(client *ws.Client, frame ws.Frame) {
	frame.Timestamp = time.Now().Format(time.RFC3339)
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to marshal frame for client %s: %v", client.UserID, err)
		return
	}
	h.wsManager.SendToUser(client.UserID, payload)
}

func (h *WebSocketHandler) sendError(client *ws.Client, message string) {
	h.sendFrame(client, ws.Frame{
		Type: ws.FrameTypeError,
		Data: map[string]string{"message": message},
	})
}
