package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mingle/internal/domain/entity"
	"mingle/internal/domain/repository"
	"mingle/pkg/errors"
)

// memoryMessageRepository backs tests without a Firestore emulator. It keeps
// the same contract as the Firestore adapter: ascending reads, forward-only
// status transitions.
type memoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*entity.Message
}

func NewMemoryMessageRepository() repository.MessageRepository {
	return &memoryMessageRepository{
		messages: make(map[string]*entity.Message),
	}
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *message
	r.messages[message.ID] = &stored
	return nil
}

func (r *memoryMessageRepository) GetByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			copied := *m
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memoryMessageRepository) UpdateStatus(ctx context.Context, messageID string, newStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[messageID]
	if !ok {
		return errors.NotFound("Message", nil)
	}

	if !entity.StatusAdvances(message.Status, newStatus) {
		return nil
	}

	message.Status = newStatus
	message.UpdatedAt = time.Now()
	return nil
}
