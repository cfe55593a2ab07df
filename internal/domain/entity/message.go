package entity

import "time"

// Message status lifecycle. Transitions only move forward.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

var statusRank = map[string]int{
	MessageStatusSent:      0,
	MessageStatusDelivered: 1,
	MessageStatusRead:      2,
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusAdvances reports whether moving from current to next is a forward
// transition. Re-applying the current status or moving backwards returns
// false; callers treat that as a no-op, not an error.
func StatusAdvances(current, next string) bool {
	cr, ok := statusRank[current]
	if !ok {
		return false
	}
	nr, ok := statusRank[next]
	if !ok {
		return false
	}
	return nr > cr
}

// Message is a durable direct message in the flat message collection.
// Immutable after creation except Status and UpdatedAt.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	ReceiverID     string    `json:"receiver_id" firestore:"receiverId"`
	Message        string    `json:"message" firestore:"message"`
	Status         string    `json:"status" firestore:"status"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}
