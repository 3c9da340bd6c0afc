package chatserver

import (
	"context"
	"encoding/json"
	"net/http"

	"socialchat/internal/imtypes"
	"socialchat/internal/logger"
	"socialchat/internal/middleware"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"go.uber.org/zap"
)

const socketNamespace = "/"

// SocketIOServer 为浏览器的 socket.io 客户端提供同样的房间事件，并实现 relay.Broadcaster。
type SocketIOServer struct {
	ctx    context.Context
	server *socketio.Server
	events *SocketEvents
	gate   *middleware.AuthGate
}

// NewSocketIOServer registers the namespace handlers. 调用方负责 Serve 和 Close。
func NewSocketIOServer(ctx context.Context, events *SocketEvents, gate *middleware.AuthGate) *SocketIOServer {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: allowAnyOrigin},
			&websocket.Transport{CheckOrigin: allowAnyOrigin},
		},
	})
	s := &SocketIOServer{ctx: ctx, server: server, events: events, gate: gate}

	server.OnConnect(socketNamespace, s.onConnect)
	server.OnEvent(socketNamespace, imtypes.EventJoinRoom, func(conn socketio.Conn, room string) {
		s.events.JoinRoom(conn, room)
	})
	server.OnEvent(socketNamespace, imtypes.EventSendMessage, func(conn socketio.Conn, data json.RawMessage) {
		s.events.SendMessage(s.ctx, socketUserID(conn), data)
	})
	server.OnError(socketNamespace, func(conn socketio.Conn, err error) {
		logger.Warn("socket.io 错误", zap.Error(err))
	})
	server.OnDisconnect(socketNamespace, func(conn socketio.Conn, reason string) {
		logger.Debug("socket.io 连接断开", zap.String("userId", socketUserID(conn)), zap.String("reason", reason))
	})
	return s
}

// onConnect 读取 token 查询参数。go-socket.io 只支持协议 v2，
// 客户端的 auth 负载收不到，所以令牌放在连接 URL 上。
func (s *SocketIOServer) onConnect(conn socketio.Conn) error {
	u := conn.URL()
	token := u.Query().Get("token")
	if token == "" {
		return nil
	}
	identity, _, err := s.gate.AuthenticateToken(s.ctx, token)
	if err != nil {
		logger.Warn("socket.io 连接令牌无效", zap.Error(err))
		return err
	}
	conn.SetContext(identity.ID)
	conn.Join(identity.ID)
	return nil
}

func socketUserID(conn socketio.Conn) string {
	if conn == nil {
		return ""
	}
	id, _ := conn.Context().(string)
	return id
}

func (s *SocketIOServer) BroadcastToRoom(room, event string, payload json.RawMessage) {
	s.server.BroadcastToRoom(socketNamespace, room, event, payload)
}

// Serve 阻塞直到服务器关闭。
func (s *SocketIOServer) Serve() error {
	return s.server.Serve()
}

func (s *SocketIOServer) Close() error {
	return s.server.Close()
}

func (s *SocketIOServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}
