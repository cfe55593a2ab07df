package usecase

import (
	"context"
	"time"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
	"mingle/internal/infrastructure/ratelimit"
	"mingle/pkg/errors"
	"mingle/pkg/logger"
)

// MessagingUseCase orchestrates durable direct chat over the flat message
// collection. Instances are constructed explicitly with their dependencies;
// there is no process-wide singleton.
type MessagingUseCase struct {
	messageRepo repository.MessageRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewMessagingUseCase(messageRepo repository.MessageRepository, rateLimiter *ratelimit.RateLimiter) *MessagingUseCase {
	return &MessagingUseCase{
		messageRepo: messageRepo,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	ReceiverID string
	Message    string
}

// SendMessage persists a new message with status "sent" and returns the
// stored message including its generated ID. There is no idempotency key:
// duplicate calls under retry produce duplicate rows.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if senderID == "" || input.ReceiverID == "" {
		return nil, errors.BadRequest("Both sender and receiver are required", nil)
	}
	if input.Message == "" {
		return nil, errors.BadRequest("Message must not be empty", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage); !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	now := time.Now()
	message := &entity.Message{
		ConversationID: entity.ConversationKey(senderID, input.ReceiverID),
		SenderID:       senderID,
		ReceiverID:     input.ReceiverID,
		Message:        input.Message,
		Status:         entity.MessageStatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage: failed to persist message from %s to %s: %v", senderID, input.ReceiverID, err)
		return nil, err
	}

	return message, nil
}

// GetMessages returns the full conversation between the two users in
// ascending createdAt order. The pair resolves to its conversation key, so
// either ordering of the identifiers reads the same conversation.
func (uc *MessagingUseCase) GetMessages(ctx context.Context, senderID, receiverID string) ([]*entity.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, errors.BadRequest("Both sender and receiver are required", nil)
	}

	messages, err := uc.messageRepo.GetByConversation(ctx, entity.ConversationKey(senderID, receiverID))
	if err != nil {
		logger.Error("GetMessages: failed to fetch conversation %s/%s: %v", senderID, receiverID, err)
		return nil, err
	}

	if messages == nil {
		messages = []*entity.Message{}
	}
	return messages, nil
}

// UpdateMessageStatus drives the sent -> delivered -> read machine. The
// service does not drive transitions automatically; delivery and read
// receipts arrive as explicit calls. Repeat or backwards transitions are
// silently absorbed by the store layer.
func (uc *MessagingUseCase) UpdateMessageStatus(ctx context.Context, messageID, newStatus string) error {
	if messageID == "" {
		return errors.BadRequest("Message id is required", nil)
	}
	if !entity.ValidStatus(newStatus) {
		return errors.BadRequest("Unknown message status: "+newStatus, nil)
	}

	return uc.messageRepo.UpdateStatus(ctx, messageID, newStatus)
}
