package events

import "github.com/smazurov/hdmiinput/internal/hal"

// Event type constants for kelindar/event.
const (
	TypeHotplug uint32 = iota + 1
	TypeSignalStatus
	TypeInputStatus
	TypeVideoMode
	TypeGameFeatureStatus
	TypeNotification
	TypeLogEntry
)

// Event is implemented by everything carried on the Bus.
type Event interface {
	Type() uint32
}

// HotplugEvent reports a source being connected to or removed from a port.
type HotplugEvent struct {
	Port      int  `json:"port"`
	Connected bool `json:"isPortConnected"`
}

// Type implements Event.
func (e HotplugEvent) Type() uint32 { return TypeHotplug }

// SignalStatusEvent reports a change in a port's signal state.
type SignalStatusEvent struct {
	Port   int              `json:"port"`
	Status hal.SignalStatus `json:"status"`
}

// Type implements Event.
func (e SignalStatusEvent) Type() uint32 { return TypeSignalStatus }

// InputStatusEvent reports presentation of a port starting or stopping.
type InputStatusEvent struct {
	Port      int  `json:"port"`
	Presented bool `json:"isPresented"`
}

// Type implements Event.
func (e InputStatusEvent) Type() uint32 { return TypeInputStatus }

// VideoModeEvent reports a new video mode detected on a port.
type VideoModeEvent struct {
	Port       int                 `json:"port"`
	Resolution hal.VideoResolution `json:"resolution"`
}

// Type implements Event.
func (e VideoModeEvent) Type() uint32 { return TypeVideoMode }

// GameFeatureStatusEvent reports a game feature (ALLM) toggling on a port.
type GameFeatureStatusEvent struct {
	Port    int    `json:"port"`
	Feature string `json:"gameFeature"`
	Enabled bool   `json:"mode"`
}

// Type implements Event.
func (e GameFeatureStatusEvent) Type() uint32 { return TypeGameFeatureStatus }

// NotificationEvent is an outgoing JSON-RPC notification produced by the
// HdmiInput service, e.g. onSignalChanged.
type NotificationEvent struct {
	Event  string         `json:"event" example:"onSignalChanged" doc:"Notification name"`
	Params map[string]any `json:"params" doc:"Notification parameters"`
}

// Type implements Event.
func (e NotificationEvent) Type() uint32 { return TypeNotification }

// LogEntryEvent is a log record streamed to SSE clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number"`
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"hdmiinput" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type implements Event.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
