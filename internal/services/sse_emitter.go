package services

import (
	"context"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
	"github.com/yungbote/refyne-backend/internal/realtime/bus"
)

// EventEmitter delivers run events to whoever is subscribed to the channel.
type EventEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

// HubEmitter broadcasts on this instance only.
type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}

// BusEmitter delivers locally and publishes for the other instances, whose
// forwarders re-broadcast onto their own hubs.
type BusEmitter struct {
	Bus   bus.Bus
	Local EventEmitter
	Log   *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e.Local != nil {
		e.Local.Emit(ctx, msg)
	}
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("Run event publish failed", "channel", msg.Channel, "event", msg.Event, "error", err)
	}
}
