package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/samber/lo"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
	"mingle/internal/infrastructure/ratelimit"
	"mingle/pkg/errors"
	"mingle/pkg/logger"
)

// Notifier is the push channel to connected clients. *websocket.Manager
// satisfies it; tests inject a fake.
type Notifier interface {
	SendToUser(userID string, message []byte)
	SendToChatRoom(roomID string, message []byte, excludeUserID string)
	IsInRoom(roomID, userID string) bool
}

// TempMessagingUseCase orchestrates ephemeral product-linked chat: one
// embedded-array room document per conversation, plus live push delivery.
type TempMessagingUseCase struct {
	roomRepo    repository.ChatRoomRepository
	notifier    Notifier
	rateLimiter *ratelimit.RateLimiter
}

func NewTempMessagingUseCase(roomRepo repository.ChatRoomRepository, notifier Notifier, rateLimiter *ratelimit.RateLimiter) *TempMessagingUseCase {
	return &TempMessagingUseCase{
		roomRepo:    roomRepo,
		notifier:    notifier,
		rateLimiter: rateLimiter,
	}
}

type SendTempMessageInput struct {
	ReceiverID     string
	Message        string
	ProductContext entity.ProductContext
}

// SendMessage appends to the pair's room, creating it on first send. The
// receiver is required explicitly on every send: a brand-new room has no
// participants to infer "the other ID" from. Room id derivation makes
// concurrent first sends between the same pair converge on one document.
func (uc *TempMessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendTempMessageInput) (*entity.TempMessage, error) {
	if senderID == "" || input.ReceiverID == "" {
		return nil, errors.BadRequest("Both sender and receiver are required", nil)
	}
	if input.Message == "" {
		return nil, errors.BadRequest("Message must not be empty", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendTempMessage); !allowed {
		logger.Warn("Temp SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	roomID := entity.ConversationKey(senderID, input.ReceiverID)
	message := entity.TempMessage{
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Message:    input.Message,
		Status:     entity.MessageStatusSent,
		Timestamp:  time.Now(),
	}

	room, err := uc.roomRepo.AppendMessage(ctx, roomID, []string{senderID, input.ReceiverID}, input.ProductContext, message)
	if err != nil {
		logger.Error("Temp SendMessage: failed to append to room %s: %v", roomID, err)
		return nil, err
	}

	uc.pushNewMessage(room.ID, senderID, message)

	return &message, nil
}

// GetMessages returns the full room. A never-created chatID yields an
// empty-shaped room so clients render without a "no conversation yet"
// branch; this deliberately conflates absent with empty.
func (uc *TempMessagingUseCase) GetMessages(ctx context.Context, chatID string) (*entity.ChatRoom, error) {
	if chatID == "" {
		return nil, errors.BadRequest("Chat id is required", nil)
	}

	room, err := uc.roomRepo.GetByID(ctx, chatID)
	if err != nil {
		logger.Error("Temp GetMessages: failed to load room %s: %v", chatID, err)
		return nil, err
	}
	if room == nil {
		return entity.EmptyChatRoom(chatID), nil
	}
	if room.Messages == nil {
		room.Messages = []entity.TempMessage{}
	}
	return room, nil
}

// SubscribeToMessages attaches a live subscription to the room. The callback
// fires once per distinct observed document state with the current message
// list; the returned unsubscribe func is safe to call repeatedly.
func (uc *TempMessagingUseCase) SubscribeToMessages(ctx context.Context, roomID string, callback func(messages []entity.TempMessage)) (repository.UnsubscribeFunc, error) {
	if roomID == "" {
		return nil, errors.BadRequest("Room id is required", nil)
	}
	return uc.roomRepo.Subscribe(ctx, roomID, callback)
}

// GetTempChats lists the user's rooms, most recently active first. The store
// query does not order; the sort happens here.
func (uc *TempMessagingUseCase) GetTempChats(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	if userID == "" {
		return nil, errors.BadRequest("User id is required", nil)
	}

	rooms, err := uc.roomRepo.ListByParticipant(ctx, userID)
	if err != nil {
		logger.Error("GetTempChats: failed to list rooms for %s: %v", userID, err)
		return nil, err
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastMessageTime.After(rooms[j].LastMessageTime)
	})

	if rooms == nil {
		rooms = []*entity.ChatRoom{}
	}
	return rooms, nil
}

// MarkMessagesAsRead marks every message addressed to userID as read. The
// caller must be a room participant. Applying it twice with no new messages
// leaves the room unchanged.
func (uc *TempMessagingUseCase) MarkMessagesAsRead(ctx context.Context, roomID, userID string) error {
	if roomID == "" || userID == "" {
		return errors.BadRequest("Room id and user id are required", nil)
	}

	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return nil
	}
	if !lo.Contains(room.Participants, userID) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.roomRepo.MarkMessagesAsRead(ctx, roomID, userID)
}

func (uc *TempMessagingUseCase) pushNewMessage(roomID, senderID string, message entity.TempMessage) {
	frame := map[string]interface{}{
		"type":    "new_message",
		"chat_id": roomID,
		"data":    message,
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to marshal push frame for room %s: %v", roomID, err)
		return
	}

	// Members with the room open get the room broadcast. The receiver gets
	// a direct copy for chat list updates only when not in the room; an
	// in-room receiver already got the broadcast.
	uc.notifier.SendToChatRoom(roomID, payload, senderID)
	if !uc.notifier.IsInRoom(roomID, message.ReceiverID) {
		uc.notifier.SendToUser(message.ReceiverID, payload)
	}
}
