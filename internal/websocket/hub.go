package websocket

import (
	"context"
	"encoding/json"

	"socialchat/internal/imtypes"
	"socialchat/internal/logger"

	"go.uber.org/zap"
)

// roomOp 是加入房间或向房间广播。两者共用一个通道，
// 这样同一客户端先 join 再 send 时顺序不会颠倒。
type roomOp struct {
	join  *Client
	room  string
	frame []byte
}

// Hub maintains the set of active clients and the rooms they joined,
// and broadcasts frames to the clients of a room.
// 所有 map 只在 Run 所在的 goroutine 中读写。
type Hub struct {
	// Registered clients with the rooms each one joined.
	clients map[*Client]map[string]struct{}

	// room -> members
	rooms map[string]map[*Client]struct{}

	// Joins and frames aimed at a room.
	ops chan roomOp

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// 在 Run 退出后关闭
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]map[string]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		ops:        make(chan roomOp, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Join adds c to room. 空房间名被忽略。
func (h *Hub) Join(c *Client, room string) {
	if room == "" {
		return
	}
	select {
	case h.ops <- roomOp{join: c, room: room}:
	case <-h.done:
	}
}

// BroadcastToRoom sends the event to every client in room, including the one that caused it.
// 非阻塞：队列已满时丢弃事件。
func (h *Hub) BroadcastToRoom(room, event string, payload json.RawMessage) {
	if room == "" {
		return
	}
	frame, err := json.Marshal(imtypes.Frame{Event: event, Data: payload})
	if err != nil {
		logger.Error("序列化 WebSocket 帧失败", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case h.ops <- roomOp{room: room, frame: frame}:
	default:
		logger.Warn("Hub broadcast channel is full, dropping event", zap.String("room", room), zap.String("event", event))
	}
}

// Run starts the hub and listens for messages on its channels until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	logger.Info("WebSocket Hub Run loop started.")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			logger.Info("WebSocket Hub Run loop stopped.")
			return

		case client := <-h.register:
			// 同一用户可以有多个连接
			h.clients[client] = make(map[string]struct{})
			logger.Debug("客户端已注册", zap.String("userId", client.UserID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				logger.Debug("客户端已注销", zap.String("userId", client.UserID))
			}

		case op := <-h.ops:
			if op.join != nil {
				h.addToRoom(op.join, op.room)
				continue
			}
			for client := range h.rooms[op.room] {
				select {
				case client.send <- op.frame:
				default:
					// 发送缓冲区已满，认为客户端过慢或已断开
					logger.Warn("客户端发送通道已满，移除客户端", zap.String("userId", client.UserID))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) addToRoom(client *Client, room string) {
	joined, ok := h.clients[client]
	if !ok {
		return
	}
	joined[room] = struct{}{}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
}

// registerClient 和 unregisterClient 在 hub 停止后不再阻塞。
func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	for room := range h.clients[client] {
		members := h.rooms[room]
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clients, client)
	close(client.send)
}
