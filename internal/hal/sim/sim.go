// Package sim is an in-memory HDMI input HAL. Tests drive it directly;
// `hdmiinputd halsim` serves it on the platform bus so the daemon can run
// without receiver hardware.
package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// Port is the simulated state of one HDMI input.
type Port struct {
	Connected   bool
	Signal      hal.SignalStatus
	Mode        hal.VideoResolution
	EDID        []byte
	SPD         []byte
	EdidVersion hal.EdidVersion
	ALLM        bool
}

// Rect is the last rectangle passed to ScaleVideo.
type Rect struct {
	X, Y, Width, Height int
}

// HAL implements hal.HdmiInput over in-memory ports.
type HAL struct {
	mu       sync.Mutex
	ports    []Port
	features []string
	selected int
	rect     Rect
	sink     hal.EventSink
	failures map[string]error
	closed   bool
}

// Option configures a HAL.
type Option func(*HAL)

// WithSink routes mutator events to sink.
func WithSink(sink hal.EventSink) Option {
	return func(h *HAL) { h.sink = sink }
}

// WithFeatures overrides the supported game features (default ["ALLM"]).
func WithFeatures(features ...string) Option {
	return func(h *HAL) { h.features = slices.Clone(features) }
}

// WithPorts replaces the default ports.
func WithPorts(ports ...Port) Option {
	return func(h *HAL) {
		h.ports = make([]Port, len(ports))
		for i, p := range ports {
			h.ports[i] = clonePort(p)
		}
	}
}

// New creates a HAL with n disconnected ports, each advertising a default
// HDMI 1.4 EDID. A negative n gives no ports.
func New(n int, opts ...Option) *HAL {
	h := &HAL{
		ports:    make([]Port, max(n, 0)),
		features: []string{hal.GameFeatureALLM},
		selected: hal.StopPort,
		failures: make(map[string]error),
	}
	for i := range h.ports {
		h.ports[i] = DefaultPort(i)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DefaultPort returns the initial state of port i.
func DefaultPort(i int) Port {
	return Port{
		Signal:      hal.SignalNoSignal,
		Mode:        hal.VideoResolution{PixelResolution: hal.Resolution1920x1080, FrameRate: hal.FrameRate60},
		EDID:        DefaultEDID(fmt.Sprintf("HDMI %d", i+1)),
		EdidVersion: hal.EdidVersion14,
	}
}

// SetSink replaces the event sink. A nil sink silences events.
func (h *HAL) SetSink(sink hal.EventSink) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

// InjectError makes every later call of op fail with err until cleared with
// a nil err. op is the interface method name, e.g. "EDIDBytes".
func (h *HAL) InjectError(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failures, op)
		return
	}
	h.failures[op] = err
}

// Selected returns the presented port or hal.StopPort.
func (h *HAL) Selected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

// Rect returns the last scaling rectangle.
func (h *HAL) Rect() Rect {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rect
}

// PortState returns a copy of port's state.
func (h *HAL) PortState(port int) (Port, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if port < 0 || port >= len(h.ports) {
		return Port{}, hal.NewError("PortState", port, hal.ErrInvalidPort)
	}
	return clonePort(h.ports[port]), nil
}

// check must be called with h.mu held.
func (h *HAL) check(op string, port int, portScoped bool) error {
	if h.closed {
		return hal.NewError(op, port, hal.ErrUnavailable)
	}
	if err, ok := h.failures[op]; ok {
		return hal.NewError(op, port, err)
	}
	if portScoped && (port < 0 || port >= len(h.ports)) {
		return hal.NewError(op, port, hal.ErrInvalidPort)
	}
	return nil
}

// NumberOfInputs implements hal.HdmiInput.
func (h *HAL) NumberOfInputs(_ context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("NumberOfInputs", -1, false); err != nil {
		return 0, err
	}
	return len(h.ports), nil
}

// IsPortConnected implements hal.HdmiInput.
func (h *HAL) IsPortConnected(_ context.Context, port int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("IsPortConnected", port, true); err != nil {
		return false, err
	}
	return h.ports[port].Connected, nil
}

// SelectPort implements hal.HdmiInput. Presentation changes are reported as
// status events for the old and new port.
func (h *HAL) SelectPort(ctx context.Context, port int) error {
	h.mu.Lock()
	if err := h.check("SelectPort", port, port != hal.StopPort); err != nil {
		h.mu.Unlock()
		return err
	}
	prev := h.selected
	h.selected = port
	sink := h.sink
	h.mu.Unlock()

	if sink == nil || prev == port {
		return nil
	}
	var errs []error
	if prev != hal.StopPort {
		errs = append(errs, sink.StatusChanged(ctx, prev, false))
	}
	if port != hal.StopPort {
		errs = append(errs, sink.StatusChanged(ctx, port, true))
	}
	return errors.Join(errs...)
}

// ScaleVideo implements hal.HdmiInput.
func (h *HAL) ScaleVideo(_ context.Context, x, y, width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("ScaleVideo", -1, false); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return hal.NewError("ScaleVideo", -1, fmt.Errorf("negative size %dx%d", width, height))
	}
	h.rect = Rect{X: x, Y: y, Width: width, Height: height}
	return nil
}

// EDIDBytes implements hal.HdmiInput.
func (h *HAL) EDIDBytes(_ context.Context, port int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("EDIDBytes", port, true); err != nil {
		return nil, err
	}
	return slices.Clone(h.ports[port].EDID), nil
}

// WriteEDID implements hal.HdmiInput.
func (h *HAL) WriteEDID(_ context.Context, port int, edid []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("WriteEDID", port, true); err != nil {
		return err
	}
	if len(edid) == 0 {
		return hal.NewError("WriteEDID", port, errors.New("empty EDID"))
	}
	h.ports[port].EDID = slices.Clone(edid)
	return nil
}

// SPDInfo implements hal.HdmiInput.
func (h *HAL) SPDInfo(_ context.Context, port int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("SPDInfo", port, true); err != nil {
		return nil, err
	}
	return slices.Clone(h.ports[port].SPD), nil
}

// SetEdidVersion implements hal.HdmiInput.
func (h *HAL) SetEdidVersion(_ context.Context, port int, version hal.EdidVersion) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("SetEdidVersion", port, true); err != nil {
		return err
	}
	if version != hal.EdidVersion14 && version != hal.EdidVersion20 {
		return hal.NewError("SetEdidVersion", port, fmt.Errorf("unknown EDID version %d", version))
	}
	h.ports[port].EdidVersion = version
	return nil
}

// EdidVersion implements hal.HdmiInput.
func (h *HAL) EdidVersion(_ context.Context, port int) (hal.EdidVersion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("EdidVersion", port, true); err != nil {
		return hal.EdidVersionUnset, err
	}
	return h.ports[port].EdidVersion, nil
}

// SupportedGameFeatures implements hal.HdmiInput.
func (h *HAL) SupportedGameFeatures(_ context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("SupportedGameFeatures", -1, false); err != nil {
		return nil, err
	}
	return slices.Clone(h.features), nil
}

// ALLMStatus implements hal.HdmiInput.
func (h *HAL) ALLMStatus(_ context.Context, port int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check("ALLMStatus", port, true); err != nil {
		return false, err
	}
	return h.ports[port].ALLM, nil
}

// Close implements hal.HdmiInput. Later calls fail with hal.ErrUnavailable.
func (h *HAL) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// mutate applies fn to port under the lock and returns the sink to notify.
func (h *HAL) mutate(op string, port int, fn func(p *Port) bool) (hal.EventSink, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if port < 0 || port >= len(h.ports) {
		return nil, false, hal.NewError(op, port, hal.ErrInvalidPort)
	}
	changed := fn(&h.ports[port])
	return h.sink, changed, nil
}

// Plug connects or disconnects a source. Unplugging drops the signal.
func (h *HAL) Plug(ctx context.Context, port int, connected bool) error {
	sink, changed, err := h.mutate("Plug", port, func(p *Port) bool {
		if p.Connected == connected {
			return false
		}
		p.Connected = connected
		if !connected {
			p.Signal = hal.SignalNoSignal
		}
		return true
	})
	if err != nil || sink == nil || !changed {
		return err
	}
	return sink.Hotplug(ctx, port, connected)
}

// SetSignal changes the signal state of port.
func (h *HAL) SetSignal(ctx context.Context, port int, status hal.SignalStatus) error {
	sink, _, err := h.mutate("SetSignal", port, func(p *Port) bool {
		p.Signal = status
		return true
	})
	if err != nil || sink == nil {
		return err
	}
	return sink.SignalChanged(ctx, port, status)
}

// SetVideoMode changes the detected video mode of port.
func (h *HAL) SetVideoMode(ctx context.Context, port int, mode hal.VideoResolution) error {
	sink, _, err := h.mutate("SetVideoMode", port, func(p *Port) bool {
		p.Mode = mode
		return true
	})
	if err != nil || sink == nil {
		return err
	}
	return sink.VideoModeChanged(ctx, port, mode)
}

// SetALLM changes the Auto Low Latency Mode flag of port.
func (h *HAL) SetALLM(ctx context.Context, port int, enabled bool) error {
	sink, _, err := h.mutate("SetALLM", port, func(p *Port) bool {
		p.ALLM = enabled
		return true
	})
	if err != nil || sink == nil {
		return err
	}
	return sink.ALLMChanged(ctx, port, enabled)
}

// SetSPD replaces the SPD infoframe reported for port.
func (h *HAL) SetSPD(port int, spd []byte) error {
	_, _, err := h.mutate("SetSPD", port, func(p *Port) bool {
		p.SPD = slices.Clone(spd)
		return true
	})
	return err
}

// Present reports a presentation status change without changing the
// selected port, as a platform does when a source drops mid-stream.
func (h *HAL) Present(ctx context.Context, port int, presented bool) error {
	sink, _, err := h.mutate("Present", port, func(*Port) bool { return true })
	if err != nil || sink == nil {
		return err
	}
	return sink.StatusChanged(ctx, port, presented)
}

func clonePort(p Port) Port {
	p.EDID = slices.Clone(p.EDID)
	p.SPD = slices.Clone(p.SPD)
	return p
}
