package repository

import (
	"context"
	"sync"
	"time"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
)

// memoryChatRoomRepository mirrors the Firestore adapter's semantics for
// tests: per-room atomic mutation under one lock, and subscribers notified
// once per distinct document state (initial state included, as Firestore
// snapshot listeners do).
type memoryChatRoomRepository struct {
	mu          sync.Mutex
	rooms       map[string]*entity.ChatRoom
	subscribers map[string]map[int]func(messages []entity.TempMessage)
	nextSubID   int

	// notifyMu serializes callback delivery in document-state order. It is
	// acquired before mu is released, so a newer state can never overtake
	// an older one. Callbacks must not mutate the repository.
	notifyMu sync.Mutex
}

func NewMemoryChatRoomRepository() repository.ChatRoomRepository {
	return &memoryChatRoomRepository{
		rooms:       make(map[string]*entity.ChatRoom),
		subscribers: make(map[string]map[int]func(messages []entity.TempMessage)),
	}
}

func (r *memoryChatRoomRepository) GetByID(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, nil
	}
	copied := copyRoom(room)
	return &copied, nil
}

func (r *memoryChatRoomRepository) AppendMessage(ctx context.Context, roomID string, participants []string, productContext entity.ProductContext, message entity.TempMessage) (*entity.ChatRoom, error) {
	r.mu.Lock()

	now := time.Now()
	room, ok := r.rooms[roomID]
	if !ok {
		room = &entity.ChatRoom{
			ID:             roomID,
			Participants:   append([]string{}, participants...),
			Messages:       []entity.TempMessage{},
			ProductContext: productContext,
			CreatedAt:      now,
		}
		if room.ProductContext.ProductID == "" {
			room.ProductContext.ProductID = entity.DefaultProductID
		}
		r.rooms[roomID] = room
	} else if room.ProductContext.ProductID == entity.DefaultProductID &&
		productContext.ProductID != "" &&
		productContext.ProductID != entity.DefaultProductID {
		room.ProductContext = productContext
	}

	room.Messages = append(room.Messages, message)
	room.LastMessage = message.Message
	room.LastMessageTime = message.Timestamp
	room.UpdatedAt = now

	result := copyRoom(room)
	callbacks := r.roomCallbacks(roomID)
	messages := append([]entity.TempMessage{}, room.Messages...)
	r.notifyMu.Lock()
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(messages)
	}
	r.notifyMu.Unlock()
	return &result, nil
}

func (r *memoryChatRoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.ChatRoom
	for _, room := range r.rooms {
		for _, p := range room.Participants {
			if p == userID {
				copied := copyRoom(room)
				result = append(result, &copied)
				break
			}
		}
	}
	return result, nil
}

func (r *memoryChatRoomRepository) MarkMessagesAsRead(ctx context.Context, roomID string, userID string) error {
	r.mu.Lock()

	room, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	changed := false
	for i := range room.Messages {
		if room.Messages[i].ReceiverID == userID && room.Messages[i].Status != entity.MessageStatusRead {
			room.Messages[i].Status = entity.MessageStatusRead
			changed = true
		}
	}
	if !changed {
		r.mu.Unlock()
		return nil
	}

	room.UpdatedAt = time.Now()
	callbacks := r.roomCallbacks(roomID)
	messages := append([]entity.TempMessage{}, room.Messages...)
	r.notifyMu.Lock()
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(messages)
	}
	r.notifyMu.Unlock()
	return nil
}

func (r *memoryChatRoomRepository) Subscribe(ctx context.Context, roomID string, callback func(messages []entity.TempMessage)) (repository.UnsubscribeFunc, error) {
	r.mu.Lock()

	id := r.nextSubID
	r.nextSubID++
	if r.subscribers[roomID] == nil {
		r.subscribers[roomID] = make(map[int]func(messages []entity.TempMessage))
	}
	r.subscribers[roomID][id] = callback

	var initial []entity.TempMessage
	if room, ok := r.rooms[roomID]; ok {
		initial = append([]entity.TempMessage{}, room.Messages...)
	} else {
		initial = []entity.TempMessage{}
	}
	r.notifyMu.Lock()
	r.mu.Unlock()

	// Initial snapshot, matching Firestore listener behavior.
	callback(initial)
	r.notifyMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers[roomID], id)
			r.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

// roomCallbacks must be called with the lock held.
func (r *memoryChatRoomRepository) roomCallbacks(roomID string) []func(messages []entity.TempMessage) {
	var callbacks []func(messages []entity.TempMessage)
	for _, cb := range r.subscribers[roomID] {
		callbacks = append(callbacks, cb)
	}
	return callbacks
}

func copyRoom(room *entity.ChatRoom) entity.ChatRoom {
	copied := *room
	copied.Participants = append([]string{}, room.Participants...)
	copied.Messages = append([]entity.TempMessage{}, room.Messages...)
	return copied
}
