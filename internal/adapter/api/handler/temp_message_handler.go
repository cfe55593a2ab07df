package handler

import (
	"github.com/labstack/echo/v4"

	"mingle/internal/domain/entity"
	"mingle/internal/usecase"
	"mingle/pkg/response"
)

type TempMessageHandler struct {
	tempMessagingUseCase *usecase.TempMessagingUseCase
}

func NewTempMessageHandler(tempMessagingUseCase *usecase.TempMessagingUseCase) *TempMessageHandler {
	return &TempMessageHandler{
		tempMessagingUseCase: tempMessagingUseCase,
	}
}

type productContextRequest struct {
	ProductID    string  `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	ProductImage string  `json:"product_image"`
	ColorVariant string  `json:"color_variant"`
	SizeVariant  string  `json:"size_variant"`
	Price        float64 `json:"price"`
}

type sendTempMessageRequest struct {
	ReceiverID     string                 `json:"receiver_id" validate:"required"`
	Message        string                 `json:"message" validate:"required"`
	ProductContext *productContextRequest `json:"product_context"`
}

// SendTempMessage handles POST /v1/temp-messages.
func (h *TempMessageHandler) SendTempMessage(c echo.Context) error {
	var req sendTempMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)

	var productContext entity.ProductContext
	if req.ProductContext != nil {
		productContext = entity.ProductContext{
			ProductID:    req.ProductContext.ProductID,
			ProductTitle: req.ProductContext.ProductTitle,
			ProductImage: req.ProductContext.ProductImage,
			ColorVariant: req.ProductContext.ColorVariant,
			SizeVariant:  req.ProductContext.SizeVariant,
			Price:        req.ProductContext.Price,
		}
	}

	message, err := h.tempMessagingUseCase.SendMessage(c.Request().Context(), senderID, usecase.SendTempMessageInput{
		ReceiverID:     req.ReceiverID,
		Message:        req.Message,
		ProductContext: productContext,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetTempMessages handles GET /v1/temp-messages/:receiverId. The room key is
// derived from the authenticated user and the receiver, so either side reads
// the same room. A conversation that was never started returns the
// empty-shaped room, not an error.
func (h *TempMessageHandler) GetTempMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	receiverID := c.Param("receiverId")
	senderID := c.QueryParam("senderId")
	if senderID == "" {
		senderID = userID
	}

	chatID := entity.ConversationKey(senderID, receiverID)
	room, err := h.tempMessagingUseCase.GetMessages(c.Request().Context(), chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

// GetTempChats handles GET /v1/temp-chats.
func (h *TempMessageHandler) GetTempChats(c echo.Context) error {
	userID := c.Get("uid").(string)

	chats, err := h.tempMessagingUseCase.GetTempChats(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

// MarkMessagesAsRead handles PUT /v1/temp-chats/:chatId/read.
func (h *TempMessageHandler) MarkMessagesAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("chatId")

	if err := h.tempMessagingUseCase.MarkMessagesAsRead(c.Request().Context(), chatID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"chat_id": chatID})
}
