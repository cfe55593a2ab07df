package repository

import (
	"context"

	"mingle/internal/domain/entity"
)

// UnsubscribeFunc tears down a live subscription. Calling it more than once
// is safe.
type UnsubscribeFunc func()

// ChatRoomRepository is the embedded-array backend for ephemeral product
// chat: one document per conversation, messages embedded in the document.
type ChatRoomRepository interface {
	// GetByID returns the room, or nil (no error) when it does not exist.
	GetByID(ctx context.Context, roomID string) (*entity.ChatRoom, error)

	// AppendMessage appends to the room's embedded messages and refreshes
	// lastMessage/lastMessageTime in the same atomic write, creating the
	// room with the given participants and product context when it does not
	// exist yet. A concurrent reader never observes the summary fields
	// without the message or vice versa.
	AppendMessage(ctx context.Context, roomID string, participants []string, productContext entity.ProductContext, message entity.TempMessage) (*entity.ChatRoom, error)

	// ListByParticipant returns every room whose participants contain
	// userID. No ordering is guaranteed; callers sort.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error)

	// MarkMessagesAsRead sets status=read on every embedded message whose
	// receiver is userID, atomically with respect to concurrent appends so
	// a message arriving mid-update is never dropped.
	MarkMessagesAsRead(ctx context.Context, roomID string, userID string) error

	// Subscribe watches the room document and invokes callback with the
	// current embedded message list once per distinct observed document
	// state. A missing or deleted document yields an empty list. The
	// subscription ends when ctx is cancelled or the returned func is
	// called; the returned func is idempotent.
	Subscribe(ctx context.Context, roomID string, callback func(messages []entity.TempMessage)) (UnsubscribeFunc, error)
}
