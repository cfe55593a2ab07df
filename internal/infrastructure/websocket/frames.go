package websocket

// Frame types exchanged with clients.
const (
	FrameTypePing          = "ping"
	FrameTypePong          = "pong"
	FrameTypeJoinChatRoom  = "join_chat_room"
	FrameTypeLeaveChatRoom = "leave_chat_room"
	FrameTypeRoomMessages  = "room_messages"
	FrameTypeNewMessage    = "new_message"
	FrameTypeError         = "error"
)

// Frame is the wire shape of every WebSocket exchange.
type Frame struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}
