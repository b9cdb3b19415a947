//go:build linux

// Package hotplug watches kernel uevents over netlink without cgo.
//
// The HDMI input daemon uses it to notice capture nodes appearing and
// disappearing (video4linux) and, on SoCs that expose one, cable state
// changes on the HDMI extcon device.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Uevent actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"
)

// Subsystems relevant to HDMI receivers.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemExtcon      = "extcon"
	SubsystemCEC         = "cec"
)

// Event is one parsed kernel uevent.
type Event struct {
	Action    string
	KObj      string // kernel object path, e.g. /devices/platform/hdmirx/video4linux/video0
	Subsystem string
	DevType   string
	DevName   string // node name relative to /dev, e.g. video0
	DevPath   string
	Env       map[string]string
}

// Node returns the /dev path of the event's device node, or "" if the event
// carries none.
func (e Event) Node() string {
	if e.DevName == "" {
		return ""
	}
	if strings.HasPrefix(e.DevName, "/") {
		return e.DevName
	}
	return "/dev/" + e.DevName
}

// CableState reports the HDMI cable state carried by an extcon change event.
// Extcon drivers publish it as STATE=HDMI=1 (several cables are separated by
// newlines). ok is false when the event carries no HDMI state.
func (e Event) CableState() (connected, ok bool) {
	if e.Subsystem != SubsystemExtcon {
		return false, false
	}
	for _, entry := range strings.Split(e.Env["STATE"], "\n") {
		name, value, found := strings.Cut(strings.TrimSpace(entry), "=")
		if !found || name != "HDMI" {
			continue
		}
		return value == "1", true
	}
	return false, false
}

// Monitor listens for kernel uevents on a netlink socket.
type Monitor struct {
	fd      int
	mu      sync.RWMutex
	filters map[string]struct{}
}

// NewMonitor opens a netlink socket bound to the kernel broadcast group.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &Monitor{fd: fd, filters: make(map[string]struct{})}, nil
}

// AddSubsystemFilter restricts delivered events to the given subsystem. With
// no filters every event is delivered. Safe for concurrent use.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.mu.Lock()
	m.filters[subsystem] = struct{}{}
	m.mu.Unlock()
}

func (m *Monitor) accepts(subsystem string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[subsystem]
	return ok
}

// Close releases the netlink socket.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers events until ctx is cancelled or the socket fails. The events
// channel is closed when Run returns.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	// A receive timeout lets the loop observe ctx.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(m.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return err
	}

	buf := make([]byte, 8192)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		ev := ParseUEvent(buf[:n])
		if ev == nil || !m.accepts(ev.Subsystem) {
			continue
		}

		select {
		case events <- *ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseUEvent parses a kernel uevent datagram of the form
// "ACTION@KOBJ\0KEY=VALUE\0...". Messages re-broadcast by udev carry a binary
// "libudev" header that is skipped. It returns nil for malformed input.
func ParseUEvent(data []byte) *Event {
	if bytes.HasPrefix(data, []byte("libudev")) {
		data = skipUdevHeader(data)
	}

	fields := bytes.Split(data, []byte{0})
	if len(fields) == 0 {
		return nil
	}

	action, kobj, ok := strings.Cut(string(fields[0]), "@")
	if !ok || action == "" {
		return nil
	}

	ev := &Event{Action: action, KObj: kobj, Env: make(map[string]string)}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(string(field), "=")
		if !ok || key == "" {
			continue
		}
		ev.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			ev.Subsystem = value
		case "DEVTYPE":
			ev.DevType = value
		case "DEVNAME":
			ev.DevName = value
		case "DEVPATH":
			ev.DevPath = value
		}
	}

	return ev
}

// skipUdevHeader returns data from the first NUL-delimited field that looks
// like "action@path".
func skipUdevHeader(data []byte) []byte {
	for i := 0; i < len(data)-1; i++ {
		if data[i] != 0 {
			continue
		}
		rest := data[i+1:]
		field := rest
		if end := bytes.IndexByte(rest, 0); end >= 0 {
			field = rest[:end]
		}
		if idx := bytes.IndexByte(field, '@'); idx > 0 && idx < 20 {
			return rest
		}
	}
	return data
}
