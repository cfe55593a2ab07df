package entity

import "time"

// DefaultProductID tags rooms created without a specific product binding.
const DefaultProductID = "general"

// ProductContext binds an ephemeral chat room to the marketplace listing the
// conversation is about.
type ProductContext struct {
	ProductID    string  `json:"product_id" firestore:"productId"`
	ProductTitle string  `json:"product_title,omitempty" firestore:"productTitle,omitempty"`
	ProductImage string  `json:"product_image,omitempty" firestore:"productImage,omitempty"`
	ColorVariant string  `json:"color_variant,omitempty" firestore:"colorVariant,omitempty"`
	SizeVariant  string  `json:"size_variant,omitempty" firestore:"sizeVariant,omitempty"`
	Price        float64 `json:"price,omitempty" firestore:"price,omitempty"`
}

// TempMessage lives inside exactly one ChatRoom's embedded messages list.
type TempMessage struct {
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	ReceiverID string    `json:"receiver_id" firestore:"receiverId"`
	Message    string    `json:"message" firestore:"message"`
	Status     string    `json:"status" firestore:"status"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
}

// ChatRoom is a single document per two-party product conversation. The
// document ID is the conversation key, which makes concurrent creation
// between the same pair converge on one document. Messages are embedded so a
// whole conversation reads and writes atomically; LastMessage and
// LastMessageTime always mirror the tail of Messages.
type ChatRoom struct {
	ID              string         `json:"id" firestore:"id"`
	Participants    []string       `json:"participants" firestore:"participants"`
	Messages        []TempMessage  `json:"messages" firestore:"messages"`
	LastMessage     string         `json:"last_message" firestore:"lastMessage"`
	LastMessageTime time.Time      `json:"last_message_time" firestore:"lastMessageTime"`
	ProductContext  ProductContext `json:"product_context" firestore:"productContext"`
	CreatedAt       time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// EmptyChatRoom is the stable shape returned for a conversation that does not
// exist yet, so clients never need a "no conversation" branch.
func EmptyChatRoom(chatID string) *ChatRoom {
	return &ChatRoom{
		ID:           chatID,
		Participants: []string{},
		Messages:     []TempMessage{},
		ProductContext: ProductContext{
			ProductID: DefaultProductID,
		},
	}
}
