// Package events is the in-process event bus. Platform bus messages enter as
// typed events, the HdmiInput service turns them into NotificationEvents, and
// transports (JSON-RPC sessions, SSE, the NATS forwarder) consume those.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous and ordered
// per subscriber.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to every subscriber of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case HotplugEvent:
		event.Publish(b.dispatcher, e)
	case SignalStatusEvent:
		event.Publish(b.dispatcher, e)
	case InputStatusEvent:
		event.Publish(b.dispatcher, e)
	case VideoModeEvent:
		event.Publish(b.dispatcher, e)
	case GameFeatureStatusEvent:
		event.Publish(b.dispatcher, e)
	case NotificationEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler, whose parameter type selects the events it
// receives, and returns the unsubscribe function. Unknown handler types get a
// no-op unsubscribe.
//
//	unsub := bus.Subscribe(func(e events.HotplugEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(HotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SignalStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(InputStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(VideoModeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(GameFeatureStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NotificationEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Close stops the dispatcher and its subscriber goroutines.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
