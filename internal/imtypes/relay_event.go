package imtypes

import "encoding/json"

// RelayEvent 是一条需要推送到某个房间的实时事件。
// 它在 API 服务器和 chatserver 之间经 Kafka 传输，也用于进程内投递。
type RelayEvent struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewRelayEvent marshals payload into a RelayEvent for room.
func NewRelayEvent(room, event string, payload interface{}) (RelayEvent, error) {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(payload)
		if err != nil {
			return RelayEvent{}, err
		}
		raw = b
	}
	return RelayEvent{Room: room, Event: event, Payload: raw}, nil
}
