package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"socialchat/internal/config"
	"socialchat/internal/imtypes"
	"socialchat/internal/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FrameHandler 处理客户端发来的一帧。
type FrameHandler func(ctx context.Context, c *Client, frame imtypes.Frame)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	// Authenticated User ID for this client, 匿名连接为空。
	UserID string

	handleFrame FrameHandler
	ctx         context.Context
}

// Join adds the client to room.
func (c *Client) Join(room string) {
	c.hub.Join(c, room)
}

// readPump pumps frames from the websocket connection to the frame handler.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()
	pongWait := time.Duration(wsCfg.PongWaitSeconds) * time.Second
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket 异常关闭", zap.String("userId", c.UserID), zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var frame imtypes.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debug("无法解析客户端帧", zap.String("userId", c.UserID), zap.Error(err))
			continue
		}

		if c.handleFrame != nil {
			c.handleFrame(c.ctx, c, frame)
		}
	}
}

// writePump pumps frames from the hub to the websocket connection.
// 每个事件单独成帧。
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	writeWait := time.Duration(wsCfg.WriteWaitSeconds) * time.Second
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWsPerConnection 处理来自对等方的 websocket 请求。userID 为空表示匿名连接。
// 返回的 Client 已注册到 hub，onConnect 在读写循环启动前调用。
func ServeWsPerConnection(ctx context.Context, hub *Hub, handleFrame FrameHandler, userID string, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, checkOrigin func(r *http.Request) bool, onConnect func(c *Client)) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket Upgrade 失败", zap.Error(err))
		return
	}

	sendBuffer := wsCfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	client := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		handleFrame: handleFrame,
		ctx:         ctx,
	}
	if !hub.registerClient(client) {
		conn.Close()
		return
	}
	if onConnect != nil {
		onConnect(client)
	}

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)

	logger.Debug("客户端已连接", zap.String("userId", userID))
}
