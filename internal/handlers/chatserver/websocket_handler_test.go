package chatserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socialchat/internal/auth"
	"socialchat/internal/config"
	"socialchat/internal/handlers/chatserver"
	"socialchat/internal/imtypes"
	"socialchat/internal/middleware"
	"socialchat/internal/models"
	"socialchat/internal/relay"
	"socialchat/internal/services"
	"socialchat/internal/storage"
	"socialchat/internal/storage/storagetest"
	ws "socialchat/internal/websocket"
)

var (
	testAuthCfg = config.AuthConfig{JWTSecretKey: "ws-secret", JWTExpiry: time.Hour, Issuer: "test"}
	testWSCfg   = config.WebSocketConfig{
		WriteWaitSeconds:    5,
		PongWaitSeconds:     60,
		PingPeriodSeconds:   54,
		MaxMessageSizeBytes: 4096,
		SendBuffer:          16,
	}
)

type wsEnv struct {
	db     *gorm.DB
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := storagetest.Open(t)
	users := storage.NewGormUserRepository(db)

	hub := ws.NewHub()
	go hub.Run(ctx)

	publisher := relay.NewLocalPublisher(relay.NewFanout(hub))
	messages := services.NewMessageService(storage.NewGormMessageRepository(db), users, publisher)
	gate := middleware.NewAuthGate(testAuthCfg, nil, users)

	handler := chatserver.NewWebSocketHandler(ctx, hub, chatserver.NewSocketEvents(publisher, messages), gate, testWSCfg)
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(server.Close)
	return &wsEnv{db: db, server: server}
}

func (e *wsEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (e *wsEnv) login(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := storagetest.CreateUser(t, e.db, username, username+"@x.com")
	token, err := auth.GenerateToken(user.ID, testAuthCfg)
	require.NoError(t, err)
	return user, token
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(imtypes.Frame{Event: event, Data: raw}))
}

func read(t *testing.T, conn *websocket.Conn) imtypes.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame imtypes.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestAnonymousSocketJoinsAndEchoes(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "")

	send(t, conn, imtypes.EventJoinRoom, "room-1")
	send(t, conn, imtypes.EventSendMessage, map[string]interface{}{"roomId": "room-1", "content": "typing"})

	frame := read(t, conn)
	assert.Equal(t, imtypes.EventReceiveMessage, frame.Event)
	assert.JSONEq(t, `{"roomId":"room-1","content":"typing"}`, string(frame.Data))
}

func TestAuthenticatedSocketJoinsPersonalRoom(t *testing.T) {
	env := newWSEnv(t)
	alice, token := env.login(t, "alice")
	conn := env.dial(t, token)

	send(t, conn, imtypes.EventSendMessage, map[string]string{"id": "m1", "roomId": alice.ID})

	frame := read(t, conn)
	assert.Equal(t, imtypes.EventReceiveMessage, frame.Event)
}

func TestInvalidTokenIsRejected(t *testing.T) {
	env := newWSEnv(t)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "?token=garbage"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocketMessageIsPersistedThenRelayed(t *testing.T) {
	env := newWSEnv(t)
	alice, aliceToken := env.login(t, "alice")
	bob, bobToken := env.login(t, "bob")

	aliceConn := env.dial(t, aliceToken)
	bobConn := env.dial(t, bobToken)

	// 等 bob 的个人房间生效
	send(t, bobConn, imtypes.EventSendMessage, map[string]string{"id": "sync", "roomId": bob.ID})
	read(t, bobConn)

	send(t, aliceConn, imtypes.EventSendMessage, map[string]string{"receiverId": bob.ID, "content": "hi"})

	frame := read(t, bobConn)
	require.Equal(t, imtypes.EventReceiveMessage, frame.Event)
	var msg models.Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, alice.ID, msg.SenderID)
	assert.Equal(t, "hi", msg.Content)

	// 发送方自己的连接也会收到
	frame = read(t, aliceConn)
	assert.Equal(t, imtypes.EventReceiveMessage, frame.Event)

	var count int64
	require.NoError(t, env.db.Model(&models.Message{}).Where("sender_id = ? AND receiver_id = ?", alice.ID, bob.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
