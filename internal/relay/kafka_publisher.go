package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"socialchat/internal/imtypes"
	"socialchat/internal/kafka"
)

// KafkaPublisher 把事件写入 relay topic，key 为房间名，同一房间的事件落在同一分区上保持顺序。
type KafkaPublisher struct {
	producer kafka.MessageProducer
	topic    string
}

func NewKafkaPublisher(producer kafka.MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev imtypes.RelayEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化 relay 事件失败: %w", err)
	}
	return p.producer.SendMessage(ctx, p.topic, []byte(ev.Room), value)
}
