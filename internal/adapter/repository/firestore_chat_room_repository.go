package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
	"mingle/pkg/errors"
	"mingle/pkg/logger"
)

const chatRoomsCollection = "chat_rooms"

type firestoreChatRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRoomRepository(client *firestore.Client) repository.ChatRoomRepository {
	return &firestoreChatRoomRepository{
		client: client,
	}
}

func (r *firestoreChatRoomRepository) GetByID(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	doc, err := r.client.Collection(chatRoomsCollection).Doc(roomID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Absent rooms are empty results, not errors.
			return nil, nil
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

// AppendMessage creates or extends the room inside one transaction. The
// document ID is the conversation key, so concurrent first sends between the
// same pair converge on the same document instead of racing to create two.
func (r *firestoreChatRoomRepository) AppendMessage(ctx context.Context, roomID string, participants []string, productContext entity.ProductContext, message entity.TempMessage) (*entity.ChatRoom, error) {
	docRef := r.client.Collection(chatRoomsCollection).Doc(roomID)

	var result entity.ChatRoom
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now()
		var room entity.ChatRoom

		if err != nil || !doc.Exists() {
			room = entity.ChatRoom{
				ID:             roomID,
				Participants:   participants,
				Messages:       []entity.TempMessage{},
				ProductContext: productContext,
				CreatedAt:      now,
			}
			if room.ProductContext.ProductID == "" {
				room.ProductContext.ProductID = entity.DefaultProductID
			}
		} else {
			if err := doc.DataTo(&room); err != nil {
				return err
			}
			// A later send with a concrete product binding upgrades a room
			// that only carries the default one.
			if room.ProductContext.ProductID == entity.DefaultProductID &&
				productContext.ProductID != "" &&
				productContext.ProductID != entity.DefaultProductID {
				room.ProductContext = productContext
			}
		}

		room.Messages = append(room.Messages, message)
		room.LastMessage = message.Message
		room.LastMessageTime = message.Timestamp
		room.UpdatedAt = now

		if err := tx.Set(docRef, room); err != nil {
			return err
		}
		result = room
		return nil
	})

	if err != nil {
		return nil, errors.Internal("Failed to append chat room message", err)
	}

	return &result, nil
}

func (r *firestoreChatRoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	query := r.client.Collection(chatRoomsCollection).
		Where("participants", "array-contains", userID)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var rooms []*entity.ChatRoom
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing chat rooms for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to list chat rooms", err)
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			logger.Warn("Skipping malformed chat room document %s: %v", doc.Ref.ID, err)
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

// MarkMessagesAsRead rewrites message statuses inside a transaction. A plain
// read-modify-write here would silently drop a message appended between the
// read and the write; the transaction makes Firestore retry this update when
// the document changed underneath it.
func (r *firestoreChatRoomRepository) MarkMessagesAsRead(ctx context.Context, roomID string, userID string) error {
	docRef := r.client.Collection(chatRoomsCollection).Doc(roomID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				// Nothing to mark.
				return nil
			}
			return err
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return err
		}

		changed := false
		for i := range room.Messages {
			if room.Messages[i].ReceiverID == userID && room.Messages[i].Status != entity.MessageStatusRead {
				room.Messages[i].Status = entity.MessageStatusRead
				changed = true
			}
		}
		if !changed {
			return nil
		}

		room.UpdatedAt = time.Now()
		return tx.Set(docRef, room)
	})

	if err != nil {
		return errors.Internal("Failed to mark chat room messages as read", err)
	}

	return nil
}

// Subscribe bridges Firestore document snapshot listeners to the callback
// contract. Every snapshot, including the initial one, yields the current
// message list exactly once.
func (r *firestoreChatRoomRepository) Subscribe(ctx context.Context, roomID string, callback func(messages []entity.TempMessage)) (repository.UnsubscribeFunc, error) {
	subCtx, cancel := context.WithCancel(ctx)
	snapshots := r.client.Collection(chatRoomsCollection).Doc(roomID).Snapshots(subCtx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Error("Chat room %s snapshot listener stopped: %v", roomID, err)
				}
				return
			}

			if !snap.Exists() {
				callback([]entity.TempMessage{})
				continue
			}

			var room entity.ChatRoom
			if err := snap.DataTo(&room); err != nil {
				logger.Error("Failed to parse chat room %s snapshot: %v", roomID, err)
				continue
			}
			if room.Messages == nil {
				room.Messages = []entity.TempMessage{}
			}
			callback(room.Messages)
		}
	}()

	// context cancellation is idempotent, which gives the unsubscribe func
	// its repeat-call safety for free.
	return repository.UnsubscribeFunc(cancel), nil
}
