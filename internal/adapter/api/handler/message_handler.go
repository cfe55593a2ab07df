package handler

import (
	"github.com/labstack/echo/v4"

	"mingle/internal/usecase"
	"mingle/pkg/response"
)

type MessageHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewMessageHandler(messagingUseCase *usecase.MessagingUseCase) *MessageHandler {
	return &MessageHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=sent delivered read"`
}

// SendMessage handles POST /v1/messages.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), senderID, usecase.SendMessageInput{
		ReceiverID: req.ReceiverID,
		Message:    req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetMessages handles GET /v1/messages/:receiverId. The authenticated user
// is the sender side of the pair unless senderId says otherwise.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	receiverID := c.Param("receiverId")
	senderID := c.QueryParam("senderId")
	if senderID == "" {
		senderID = c.Get("uid").(string)
	}

	messages, err := h.messagingUseCase.GetMessages(c.Request().Context(), senderID, receiverID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessages(c, messages)
}

// UpdateMessageStatus handles PUT /v1/messages/:id/status.
func (h *MessageHandler) UpdateMessageStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.messagingUseCase.UpdateMessageStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message_id": c.Param("id"), "new_status": req.Status})
}
