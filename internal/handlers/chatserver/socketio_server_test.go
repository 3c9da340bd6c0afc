package chatserver_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialchat/internal/auth"
	"socialchat/internal/handlers/chatserver"
	"socialchat/internal/middleware"
	"socialchat/internal/relay"
	"socialchat/internal/storage"
	"socialchat/internal/storage/storagetest"
)

type sioEnv struct {
	server *httptest.Server
	token  string
	userID string
}

func newSIOEnv(t *testing.T) *sioEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db := storagetest.Open(t)
	users := storage.NewGormUserRepository(db)
	gate := middleware.NewAuthGate(testAuthCfg, nil, users)

	fanout := relay.NewFanout()
	events := chatserver.NewSocketEvents(relay.NewLocalPublisher(fanout), nil)
	sio := chatserver.NewSocketIOServer(ctx, events, gate)
	fanout.Add(sio)
	go sio.Serve()
	t.Cleanup(func() { _ = sio.Close() })

	server := httptest.NewServer(sio)
	t.Cleanup(server.Close)

	user := storagetest.CreateUser(t, db, "alice", "alice@x.com")
	token, err := auth.GenerateToken(user.ID, testAuthCfg)
	require.NoError(t, err)
	return &sioEnv{server: server, token: token, userID: user.ID}
}

// dialSIO 用 engine.io v3 的 websocket 传输直接连接，不经过 polling 握手。
func (e *sioEnv) dialSIO(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/socket.io/?EIO=3&transport=websocket"
	if token != "" {
		url += "&token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readPacket 返回下一个 socket.io 数据包，跳过 engine.io 的 open 和 pong。
func readPacket(conn *websocket.Conn) (string, error) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return "", err
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return "", err
		}
		pkt := string(raw)
		if strings.HasPrefix(pkt, "0") || pkt == "3" {
			continue
		}
		return pkt, nil
	}
}

func expectConnected(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	pkt, err := readPacket(conn)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pkt, "40"), "unexpected packet %q", pkt)
}

func emit(t *testing.T, conn *websocket.Conn, event, data string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`42["`+event+`",`+data+`]`)))
}

func TestSocketIOAnonymousJoinAndEcho(t *testing.T) {
	env := newSIOEnv(t)
	conn := env.dialSIO(t, "")
	expectConnected(t, conn)

	emit(t, conn, "join_room", `"r1"`)
	emit(t, conn, "send_message", `{"roomId":"r1","text":"hi"}`)

	pkt, err := readPacket(conn)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pkt, `42["receive_message"`), "unexpected packet %q", pkt)
	assert.Contains(t, pkt, `"text":"hi"`)
}

func TestSocketIOTokenJoinsPersonalRoom(t *testing.T) {
	env := newSIOEnv(t)
	conn := env.dialSIO(t, env.token)
	expectConnected(t, conn)

	// 没有 join_room，个人房间在连接时已加入
	emit(t, conn, "send_message", `{"id":"m1","roomId":"`+env.userID+`"}`)

	pkt, err := readPacket(conn)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pkt, `42["receive_message"`), "unexpected packet %q", pkt)
	assert.Contains(t, pkt, `"id":"m1"`)
}

func TestSocketIORejectsInvalidToken(t *testing.T) {
	env := newSIOEnv(t)
	conn := env.dialSIO(t, "not-a-jwt")

	// 服务器回 error 包或直接断开，都不能进入命名空间
	pkt, err := readPacket(conn)
	if err == nil {
		assert.False(t, strings.HasPrefix(pkt, "40"), "connect accepted: %q", pkt)
		assert.True(t, strings.HasPrefix(pkt, "44"), "unexpected packet %q", pkt)
	}
}
