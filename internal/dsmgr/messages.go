package dsmgr

import (
	"encoding/json"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// Platform bus subjects.
const (
	SubjectPrefix    = "dsmgr.hdmiin"
	SubjectHotplug   = SubjectPrefix + ".hotplug"
	SubjectSignal    = SubjectPrefix + ".signal"
	SubjectStatus    = SubjectPrefix + ".status"
	SubjectVideoMode = SubjectPrefix + ".videomode"
	SubjectALLM      = SubjectPrefix + ".allm"

	// SubjectNotifyPrefix carries forwarded JSON-RPC notifications.
	SubjectNotifyPrefix = "hdmiinput.notify"
)

// SubjectNotify returns the subject a notification is forwarded on.
func SubjectNotify(event string) string {
	return SubjectNotifyPrefix + "." + event
}

// HotplugMessage reports a source connected to or removed from a port.
type HotplugMessage struct {
	Port      int  `json:"port"`
	Connected bool `json:"isPortConnected"`
}

// SignalMessage reports a port's signal state.
type SignalMessage struct {
	Port   int              `json:"port"`
	Status hal.SignalStatus `json:"status"`
}

// StatusMessage reports presentation starting or stopping on a port.
type StatusMessage struct {
	Port      int  `json:"port"`
	Presented bool `json:"isPresented"`
}

// VideoModeMessage reports a new incoming video mode.
type VideoModeMessage struct {
	Port       int                 `json:"port"`
	Resolution hal.VideoResolution `json:"resolution"`
}

// ALLMMessage reports Auto Low Latency Mode toggling on a port.
type ALLMMessage struct {
	Port    int  `json:"port"`
	Enabled bool `json:"allmMode"`
}

// Marshal serializes the message to JSON.
func (m HotplugMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

// Marshal serializes the message to JSON.
func (m SignalMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

// Marshal serializes the message to JSON.
func (m StatusMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

// Marshal serializes the message to JSON.
func (m VideoModeMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

// Marshal serializes the message to JSON.
func (m ALLMMessage) Marshal() ([]byte, error) { return json.Marshal(m) }

// Unmarshal deserializes a bus message of type T from JSON.
func Unmarshal[T any](data []byte) (T, error) {
	var m T
	err := json.Unmarshal(data, &m)
	return m, err
}
