package imtypes

import "encoding/json"

// 客户端与服务器之间的事件名。
const (
	EventJoinRoom              = "join_room"
	EventSendMessage           = "send_message"
	EventReceiveMessage        = "receive_message"
	EventFriendRequest         = "friend_request"
	EventFriendRequestResolved = "friend_request_resolved"
)

// Frame defines the structure for frames exchanged over the native WebSocket endpoint.
// 例如 {"event": "join_room", "data": "room-1"}
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload 是 send_message 中服务器关心的字段，其余字段原样转发。
type SendMessagePayload struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}
