package chatserver

import (
	"context"
	"encoding/json"
	"net/http"

	"socialchat/internal/apperr"
	"socialchat/internal/config"
	"socialchat/internal/imtypes"
	"socialchat/internal/logger"
	"socialchat/internal/middleware"
	ws "socialchat/internal/websocket"

	"go.uber.org/zap"
)

// WebSocketHandler 负责处理原生 WebSocket 连接请求。
type WebSocketHandler struct {
	ctx    context.Context // 服务器级别的上下文，连接不随请求结束
	hub    *ws.Hub
	events *SocketEvents
	gate   *middleware.AuthGate
	wsCfg  config.WebSocketConfig
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。
func NewWebSocketHandler(ctx context.Context, hub *ws.Hub, events *SocketEvents, gate *middleware.AuthGate, wsCfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{ctx: ctx, hub: hub, events: events, gate: gate, wsCfg: wsCfg}
}

// ServeWS 处理传入的 WebSocket 请求。
// token 查询参数可选：带了就必须有效，认证后的连接自动加入以用户 ID 命名的房间。
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := r.URL.Query().Get("token"); token != "" {
		identity, _, err := h.gate.AuthenticateToken(r.Context(), token)
		if err != nil {
			logger.Warn("WebSocket 连接令牌无效", zap.Error(err))
			apperr.Write(w, err)
			return
		}
		userID = identity.ID
	}

	ws.ServeWsPerConnection(h.ctx, h.hub, h.handleFrame, userID, w, r, h.wsCfg, allowAnyOrigin, func(c *ws.Client) {
		if c.UserID != "" {
			c.Join(c.UserID)
		}
	})
}

func (h *WebSocketHandler) handleFrame(ctx context.Context, c *ws.Client, frame imtypes.Frame) {
	switch frame.Event {
	case imtypes.EventJoinRoom:
		var room string
		if err := json.Unmarshal(frame.Data, &room); err != nil {
			logger.Debug("join_room 参数无效", zap.String("userId", c.UserID), zap.Error(err))
			return
		}
		h.events.JoinRoom(c, room)
	case imtypes.EventSendMessage:
		h.events.SendMessage(ctx, c.UserID, frame.Data)
	default:
		logger.Debug("未知的客户端事件", zap.String("event", frame.Event))
	}
}

// 浏览器客户端与 API 不同源。
func allowAnyOrigin(*http.Request) bool { return true }
