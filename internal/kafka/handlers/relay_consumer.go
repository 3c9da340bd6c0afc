package kafkahandlers

import (
	"context"
	"encoding/json"

	"socialchat/internal/imtypes"
	"socialchat/internal/logger"
	"socialchat/internal/relay"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// RelayConsumer 把 relay topic 中的事件投递到本实例的 socket 房间。
type RelayConsumer struct {
	target relay.Broadcaster
}

// NewRelayConsumer creates a RelayConsumer delivering into target.
func NewRelayConsumer(target relay.Broadcaster) *RelayConsumer {
	if target == nil {
		logger.Fatal("relay target cannot be nil")
	}
	return &RelayConsumer{target: target}
}

// HandleMessage is the MessageHandler passed to the Kafka consumer.
// 无法解析的消息会被跳过并提交 offset，不会重试。
func (h *RelayConsumer) HandleMessage(_ context.Context, msg *kafka.Message) error {
	var ev imtypes.RelayEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		logger.Warn("跳过无法解析的 relay 消息", zap.ByteString("value", msg.Value), zap.Error(err))
		return nil
	}
	if ev.Room == "" || ev.Event == "" {
		logger.Warn("跳过缺少 room 或 event 的 relay 消息", zap.ByteString("key", msg.Key))
		return nil
	}

	relay.Deliver(h.target, ev)
	return nil
}
