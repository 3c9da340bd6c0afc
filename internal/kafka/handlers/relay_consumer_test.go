package kafkahandlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomEvent struct {
	room, event, payload string
}

type recordingTarget struct {
	got []roomEvent
}

func (r *recordingTarget) BroadcastToRoom(room, event string, payload json.RawMessage) {
	r.got = append(r.got, roomEvent{room, event, string(payload)})
}

func TestRelayConsumerDeliversEvent(t *testing.T) {
	target := &recordingTarget{}
	h := NewRelayConsumer(target)

	msg := &kafka.Message{
		Key:   []byte("bob"),
		Value: []byte(`{"room":"bob","event":"friend_request","payload":{"id":"r1"}}`),
	}
	require.NoError(t, h.HandleMessage(context.Background(), msg))

	require.Len(t, target.got, 1)
	assert.Equal(t, "bob", target.got[0].room)
	assert.Equal(t, "friend_request", target.got[0].event)
	assert.JSONEq(t, `{"id":"r1"}`, target.got[0].payload)
}

func TestRelayConsumerSkipsBadMessages(t *testing.T) {
	target := &recordingTarget{}
	h := NewRelayConsumer(target)

	for _, value := range []string{`not json`, `{"event":"receive_message"}`, `{"room":"bob"}`} {
		err := h.HandleMessage(context.Background(), &kafka.Message{Value: []byte(value)})
		assert.NoError(t, err, value)
	}
	assert.Empty(t, target.got)
}
