package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "mingle/internal/adapter/repository"
	"mingle/internal/domain/entity"
	"mingle/internal/infrastructure/ratelimit"
	"mingle/pkg/errors"
)

type fakeNotifier struct {
	mu        sync.Mutex
	userSends map[string]int
	roomSends map[string]int
	inRoom    map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		userSends: make(map[string]int),
		roomSends: make(map[string]int),
		inRoom:    make(map[string]bool),
	}
}

func (f *fakeNotifier) SendToUser(userID string, message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userSends[userID]++
}

func (f *fakeNotifier) SendToChatRoom(roomID string, message []byte, excludeUserID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomSends[roomID]++
}

func (f *fakeNotifier) IsInRoom(roomID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inRoom[roomID+":"+userID]
}

func (f *fakeNotifier) join(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inRoom[roomID+":"+userID] = true
}

func newTempMessagingUseCase() (*TempMessagingUseCase, *fakeNotifier) {
	notifier := newFakeNotifier()
	uc := NewTempMessagingUseCase(adapterrepo.NewMemoryChatRoomRepository(), notifier, ratelimit.NewRateLimiter())
	return uc, notifier
}

func TestTempSendMessageBootstrapsRoom(t *testing.T) {
	uc, notifier := newTempMessagingUseCase()
	ctx := context.Background()

	sent, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, entity.MessageStatusSent, sent.Status)

	room, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", room.ID)
	assert.ElementsMatch(t, []string{"u1", "u2"}, room.Participants)
	require.Len(t, room.Messages, 1)
	assert.Equal(t, "hello", room.Messages[0].Message)
	assert.Equal(t, entity.DefaultProductID, room.ProductContext.ProductID)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, 1, notifier.roomSends["u1_u2"])
	assert.Equal(t, 1, notifier.userSends["u2"])
}

func TestTempSendMessageNoDoubleDeliveryToInRoomReceiver(t *testing.T) {
	uc, notifier := newTempMessagingUseCase()
	ctx := context.Background()

	// u2 has the chat open: the room broadcast already reaches them, so no
	// direct copy on top of it.
	notifier.join("u1_u2", "u2")

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, 1, notifier.roomSends["u1_u2"])
	assert.Equal(t, 0, notifier.userSends["u2"])
}

func TestTempSendMessageSummaryTracksTail(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = uc.SendMessage(ctx, "u2", SendTempMessageInput{ReceiverID: "u1", Message: "how are you"})
	require.NoError(t, err)

	room, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)
	require.Len(t, room.Messages, 2)
	assert.Equal(t, "hello", room.Messages[0].Message)
	assert.Equal(t, "how are you", room.Messages[1].Message)
	assert.Equal(t, "how are you", room.LastMessage)
	assert.Equal(t, room.Messages[1].Timestamp, room.LastMessageTime)
}

func TestTempSendMessageUpgradesDefaultProductContext(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hi"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u1", SendTempMessageInput{
		ReceiverID: "u2",
		Message:    "about the jacket",
		ProductContext: entity.ProductContext{
			ProductID:    "prod-42",
			ProductTitle: "Denim Jacket",
			SizeVariant:  "M",
			Price:        59.99,
		},
	})
	require.NoError(t, err)

	room, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)
	assert.Equal(t, "prod-42", room.ProductContext.ProductID)
	assert.Equal(t, "Denim Jacket", room.ProductContext.ProductTitle)
}

func TestTempGetMessagesEmptyStateContract(t *testing.T) {
	uc, _ := newTempMessagingUseCase()

	room, err := uc.GetMessages(context.Background(), "never_created")
	require.NoError(t, err)
	assert.Equal(t, "never_created", room.ID)
	assert.NotNil(t, room.Messages)
	assert.Empty(t, room.Messages)
	assert.NotNil(t, room.Participants)
	assert.Empty(t, room.Participants)
	assert.Equal(t, entity.DefaultProductID, room.ProductContext.ProductID)
}

func TestGetTempChatsSortedByRecency(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "older"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u3", Message: "newer"})
	require.NoError(t, err)

	chats, err := uc.GetTempChats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "u1_u3", chats[0].ID)
	assert.Equal(t, "u1_u2", chats[1].ID)

	// u2 only sees the room it participates in.
	chats, err = uc.GetTempChats(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "u1_u2", chats[0].ID)
}

func TestMarkMessagesAsReadOnlyTargetsReceiver(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "to u2"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "u2", SendTempMessageInput{ReceiverID: "u1", Message: "to u1"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkMessagesAsRead(ctx, "u1_u2", "u2"))

	room, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageStatusRead, room.Messages[0].Status)
	assert.Equal(t, entity.MessageStatusSent, room.Messages[1].Status)
}

func TestMarkMessagesAsReadIdempotent(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkMessagesAsRead(ctx, "u1_u2", "u2"))
	first, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)

	require.NoError(t, uc.MarkMessagesAsRead(ctx, "u1_u2", "u2"))
	second, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)

	assert.Equal(t, first.Messages, second.Messages)
}

func TestMarkMessagesAsReadRequiresParticipant(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)

	err = uc.MarkMessagesAsRead(ctx, "u1_u2", "intruder")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	// Marking a nonexistent room is a quiet no-op.
	require.NoError(t, uc.MarkMessagesAsRead(ctx, "ghost_room", "u1"))
}

func TestSubscribeToMessagesDeliversEachState(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	var mu sync.Mutex
	var states [][]entity.TempMessage

	unsubscribe, err := uc.SubscribeToMessages(ctx, "u1_u2", func(messages []entity.TempMessage) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, messages)
	})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "hello"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "u2", SendTempMessageInput{ReceiverID: "u1", Message: "hi"})
	require.NoError(t, err)

	mu.Lock()
	// Initial empty snapshot plus one per append.
	require.Len(t, states, 3)
	assert.Empty(t, states[0])
	assert.Len(t, states[1], 1)
	assert.Len(t, states[2], 2)
	mu.Unlock()

	unsubscribe()
	unsubscribe() // teardown is idempotent

	_, err = uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "after unsubscribe"})
	require.NoError(t, err)

	mu.Lock()
	assert.Len(t, states, 3)
	mu.Unlock()
}

// Regression for the embedded-array read-modify-write hazard: a mark-read
// racing a send must never drop the freshly appended message.
func TestConcurrentMarkReadAndSendLosesNothing(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: "seed"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = uc.MarkMessagesAsRead(ctx, "u1_u2", "u2")
	}()
	go func() {
		defer wg.Done()
		_, _ = uc.SendMessage(ctx, "u2", SendTempMessageInput{ReceiverID: "u1", Message: "racing"})
	}()
	wg.Wait()

	room, err := uc.GetMessages(ctx, "u1_u2")
	require.NoError(t, err)
	require.Len(t, room.Messages, 2)
	assert.Equal(t, "racing", room.Messages[1].Message)
}

func TestTempSendMessageValidation(t *testing.T) {
	uc, _ := newTempMessagingUseCase()
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "", Message: "hi"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.SendMessage(ctx, "u1", SendTempMessageInput{ReceiverID: "u2", Message: ""})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}
