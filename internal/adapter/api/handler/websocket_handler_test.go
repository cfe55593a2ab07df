package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "mingle/internal/adapter/repository"
	"mingle/internal/infrastructure/ratelimit"
	ws "mingle/internal/infrastructure/websocket"
	"mingle/internal/usecase"
)

func newTestWebSocketHandler() (*WebSocketHandler, *ws.Manager, *usecase.TempMessagingUseCase) {
	manager := ws.NewManager()
	uc := usecase.NewTempMessagingUseCase(adapterrepo.NewMemoryChatRoomRepository(), manager, ratelimit.NewRateLimiter())
	return NewWebSocketHandler(manager, nil, uc), manager, uc
}

func TestHandleWebSocketWithoutTokenIsUnauthorized(t *testing.T) {
	e := newTestEcho()
	h, _, _ := newTestWebSocketHandler()

	req := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWebSocket(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJoinAbsentRoomAdmitsOnlyKeyParticipants(t *testing.T) {
	h, manager, _ := newTestWebSocketHandler()

	// The room does not exist yet; only the users its key names may wait
	// in it for the conversation to start.
	h.handleJoin(ws.NewClient("intruder", nil), "u1_u2")
	assert.False(t, manager.IsInRoom("u1_u2", "intruder"))

	h.handleJoin(ws.NewClient("u1", nil), "u1_u2")
	assert.True(t, manager.IsInRoom("u1_u2", "u1"))
}

func TestJoinExistingRoomRequiresParticipant(t *testing.T) {
	h, manager, uc := newTestWebSocketHandler()

	_, err := uc.SendMessage(context.Background(), "u1", usecase.SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)

	h.handleJoin(ws.NewClient("intruder", nil), "u1_u2")
	assert.False(t, manager.IsInRoom("u1_u2", "intruder"))

	h.handleJoin(ws.NewClient("u2", nil), "u1_u2")
	assert.True(t, manager.IsInRoom("u1_u2", "u2"))
}
