package chatserver

import (
	"context"
	"encoding/json"

	"socialchat/internal/imtypes"
	"socialchat/internal/logger"
	"socialchat/internal/relay"
	"socialchat/internal/services"

	"go.uber.org/zap"
)

// RoomJoiner 是能加入房间的连接：原生 WebSocket 客户端或 socket.io 连接。
type RoomJoiner interface {
	Join(room string)
}

// SocketEvents 实现 join_room 和 send_message 的服务端规则，两种传输共用。
type SocketEvents struct {
	publisher relay.Publisher
	messages  services.MessageService // 为 nil 时 send_message 只做转发
}

// NewSocketEvents creates the shared socket event rules.
func NewSocketEvents(publisher relay.Publisher, messages services.MessageService) *SocketEvents {
	return &SocketEvents{publisher: publisher, messages: messages}
}

// JoinRoom 把连接加入房间，空房间名被忽略。
func (e *SocketEvents) JoinRoom(conn RoomJoiner, room string) {
	if room == "" {
		return
	}
	conn.Join(room)
}

// SendMessage 处理 send_message。userID 为空表示匿名连接。
//
// 已认证连接发来的新消息（有 receiverId 和 content、没有 id）先落库，
// 由 MessageService 在提交后推送给双方。其余负载原样转发到 roomId，
// 包括已经通过 REST 落库的消息和输入中提示之类的临时事件。
func (e *SocketEvents) SendMessage(ctx context.Context, userID string, data json.RawMessage) {
	var payload imtypes.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug("忽略无法解析的 send_message", zap.String("userId", userID), zap.Error(err))
		return
	}

	if e.shouldPersist(userID, payload) {
		if _, err := e.messages.Send(ctx, userID, payload.ReceiverID, payload.Content); err != nil {
			logger.Warn("socket 消息落库失败",
				zap.String("senderId", userID),
				zap.String("receiverId", payload.ReceiverID),
				zap.Error(err))
		}
		return
	}

	if payload.RoomID == "" {
		return
	}
	ev, err := imtypes.NewRelayEvent(payload.RoomID, imtypes.EventReceiveMessage, data)
	if err != nil {
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("转发 send_message 失败", zap.String("room", payload.RoomID), zap.Error(err))
	}
}

func (e *SocketEvents) shouldPersist(userID string, p imtypes.SendMessagePayload) bool {
	return e.messages != nil && userID != "" && p.ID == "" && p.ReceiverID != "" && p.Content != ""
}
