package repository

import (
	"context"

	"mingle/internal/domain/entity"
)

// MessageRepository is the flat-collection backend for durable chat. Reads
// are keyed by the derived conversation key so fetching a conversation is a
// single indexed query instead of a scan over both sender and receiver
// fields.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error

	// GetByConversation returns every message for the conversation key in
	// ascending createdAt order.
	GetByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)

	// UpdateStatus moves a message's status forward. Non-advancing
	// transitions (repeat or regression) are a no-op, applied atomically so
	// concurrent updates cannot move the status backwards.
	UpdateStatus(ctx context.Context, messageID string, status string) error
}
