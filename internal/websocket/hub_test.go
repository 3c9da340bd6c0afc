package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialchat/internal/imtypes"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func newTestClient(t *testing.T, hub *Hub, userID string, buffer int) *Client {
	t.Helper()
	c := &Client{hub: hub, send: make(chan []byte, buffer), UserID: userID}
	require.True(t, hub.registerClient(c))
	return c
}

func nextFrame(t *testing.T, c *Client) (imtypes.Frame, bool) {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		if !ok {
			return imtypes.Frame{}, false
		}
		var f imtypes.Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f, true
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return imtypes.Frame{}, false
	}
}

func TestHubBroadcastOnlyReachesRoomMembers(t *testing.T) {
	hub, _ := startHub(t)
	alice := newTestClient(t, hub, "alice", 8)
	bob := newTestClient(t, hub, "bob", 8)

	alice.Join("room-1")
	bob.Join("room-2")

	hub.BroadcastToRoom("room-1", imtypes.EventReceiveMessage, json.RawMessage(`"one"`))
	hub.BroadcastToRoom("room-2", imtypes.EventReceiveMessage, json.RawMessage(`"two"`))

	f, ok := nextFrame(t, alice)
	require.True(t, ok)
	assert.Equal(t, imtypes.EventReceiveMessage, f.Event)
	assert.JSONEq(t, `"one"`, string(f.Data))

	// bob 只在 room-2 中，第一帧必须是 "two"
	f, ok = nextFrame(t, bob)
	require.True(t, ok)
	assert.JSONEq(t, `"two"`, string(f.Data))
}

func TestHubMultipleSocketsPerUser(t *testing.T) {
	hub, _ := startHub(t)
	tab1 := newTestClient(t, hub, "alice", 8)
	tab2 := newTestClient(t, hub, "alice", 8)
	tab1.Join("alice")
	tab2.Join("alice")

	hub.BroadcastToRoom("alice", imtypes.EventFriendRequest, json.RawMessage(`{}`))

	for _, c := range []*Client{tab1, tab2} {
		f, ok := nextFrame(t, c)
		require.True(t, ok)
		assert.Equal(t, imtypes.EventFriendRequest, f.Event)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := newTestClient(t, hub, "slow", 1)
	slow.Join("room")

	hub.BroadcastToRoom("room", imtypes.EventReceiveMessage, json.RawMessage(`1`))
	hub.BroadcastToRoom("room", imtypes.EventReceiveMessage, json.RawMessage(`2`))

	// ops 按顺序处理：barrier 收到第 3 帧时前两次广播已经完成
	barrier := newTestClient(t, hub, "barrier", 8)
	barrier.Join("room")
	hub.BroadcastToRoom("room", imtypes.EventReceiveMessage, json.RawMessage(`3`))
	f, ok := nextFrame(t, barrier)
	require.True(t, ok)
	require.JSONEq(t, `3`, string(f.Data))

	f, ok = nextFrame(t, slow)
	require.True(t, ok)
	assert.JSONEq(t, `1`, string(f.Data))
	_, ok = nextFrame(t, slow)
	assert.False(t, ok, "send channel should be closed after overflow")
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub, _ := startHub(t)
	gone := newTestClient(t, hub, "gone", 8)
	stay := newTestClient(t, hub, "stay", 8)
	gone.Join("room")
	stay.Join("room")

	hub.unregisterClient(gone)
	_, ok := nextFrame(t, gone)
	assert.False(t, ok)

	hub.BroadcastToRoom("room", imtypes.EventReceiveMessage, json.RawMessage(`1`))
	_, ok = nextFrame(t, stay)
	assert.True(t, ok)
}

func TestHubStopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := newTestClient(t, hub, "alice", 8)

	cancel()
	_, ok := nextFrame(t, c)
	assert.False(t, ok)

	// Run 退出后注册不再阻塞
	assert.False(t, hub.registerClient(&Client{hub: hub, send: make(chan []byte, 1)}))
	hub.Join(c, "room")
	hub.unregisterClient(c)
}

func TestHubIgnoresEmptyRoom(t *testing.T) {
	hub, _ := startHub(t)
	c := newTestClient(t, hub, "alice", 8)
	c.Join("")
	hub.BroadcastToRoom("", imtypes.EventReceiveMessage, json.RawMessage(`1`))
	c.Join("room")
	hub.BroadcastToRoom("room", imtypes.EventReceiveMessage, json.RawMessage(`2`))

	f, ok := nextFrame(t, c)
	require.True(t, ok)
	assert.JSONEq(t, `2`, string(f.Data))
}
