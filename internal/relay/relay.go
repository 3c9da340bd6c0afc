// Package relay 把实时事件送到订阅了房间的 socket 连接。
//
// 服务层只依赖 Publisher；Publisher 要么直接投递到本进程的 Fanout，
// 要么写入 Kafka，由各 chatserver 实例消费后再投递到各自的 Fanout。
package relay

import (
	"context"
	"encoding/json"

	"socialchat/internal/imtypes"
	"socialchat/internal/logger"

	"go.uber.org/zap"
)

// Broadcaster delivers an event to every socket currently in room.
type Broadcaster interface {
	BroadcastToRoom(room, event string, payload json.RawMessage)
}

// Publisher hands a relay event to whatever transport carries it to the sockets.
type Publisher interface {
	Publish(ctx context.Context, ev imtypes.RelayEvent) error
}

// Fanout 把同一事件投递给多个 Broadcaster，例如原生 WebSocket hub 和 socket.io 服务器。
type Fanout struct {
	targets []Broadcaster
}

// NewFanout creates a Fanout over targets. nil targets are skipped.
func NewFanout(targets ...Broadcaster) *Fanout {
	f := &Fanout{}
	f.Add(targets...)
	return f
}

// Add 追加投递目标。只能在开始投递之前调用。
func (f *Fanout) Add(targets ...Broadcaster) {
	for _, t := range targets {
		if t != nil {
			f.targets = append(f.targets, t)
		}
	}
}

func (f *Fanout) BroadcastToRoom(room, event string, payload json.RawMessage) {
	if room == "" {
		return
	}
	for _, t := range f.targets {
		t.BroadcastToRoom(room, event, payload)
	}
}

// Deliver 把事件交给 Broadcaster。
func Deliver(b Broadcaster, ev imtypes.RelayEvent) {
	b.BroadcastToRoom(ev.Room, ev.Event, ev.Payload)
}

// LocalPublisher 在当前进程内直接投递。
type LocalPublisher struct {
	target Broadcaster
}

func NewLocalPublisher(target Broadcaster) *LocalPublisher {
	return &LocalPublisher{target: target}
}

func (p *LocalPublisher) Publish(_ context.Context, ev imtypes.RelayEvent) error {
	Deliver(p.target, ev)
	return nil
}

// PublishToRooms 向每个不同的非空房间发布同一事件。
// 发布失败只记录日志：数据已经落库，实时推送是尽力而为。
func PublishToRooms(ctx context.Context, p Publisher, event string, payload interface{}, rooms ...string) {
	if p == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("序列化实时事件失败", zap.String("event", event), zap.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		if room == "" {
			continue
		}
		if _, ok := seen[room]; ok {
			continue
		}
		seen[room] = struct{}{}

		ev := imtypes.RelayEvent{Room: room, Event: event, Payload: raw}
		if err := p.Publish(ctx, ev); err != nil {
			logger.Warn("发布实时事件失败",
				zap.String("room", room),
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}
}
