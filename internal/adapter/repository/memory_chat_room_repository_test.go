package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/internal/domain/entity"
)

// A subscriber attaching while another goroutine appends must still observe
// document states oldest-first: the initial snapshot may not arrive after a
// newer append notification.
func TestSubscribeOrderedAgainstConcurrentAppends(t *testing.T) {
	for i := 0; i < 50; i++ {
		repo := NewMemoryChatRoomRepository()
		ctx := context.Background()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 5; j++ {
				_, _ = repo.AppendMessage(ctx, "u1_u2", []string{"u1", "u2"}, entity.ProductContext{}, entity.TempMessage{
					SenderID:   "u1",
					ReceiverID: "u2",
					Message:    "m",
					Status:     entity.MessageStatusSent,
					Timestamp:  time.Now(),
				})
			}
		}()

		var mu sync.Mutex
		var lengths []int
		unsubscribe, err := repo.Subscribe(ctx, "u1_u2", func(messages []entity.TempMessage) {
			mu.Lock()
			lengths = append(lengths, len(messages))
			mu.Unlock()
		})
		require.NoError(t, err)

		<-done
		unsubscribe()

		mu.Lock()
		require.NotEmpty(t, lengths)
		for k := 1; k < len(lengths); k++ {
			assert.GreaterOrEqual(t, lengths[k], lengths[k-1])
		}
		mu.Unlock()
	}
}
