//go:build linux

// Package v4l2hal implements the HDMI input HAL on V4L2 capture devices that
// report DV timings, such as HDMI-to-CSI bridges and SoC HDMI receivers.
//
// Each DV-timings capable node is one port, ordered by device path. The
// receiver hardware reachable through V4L2 has no SPD, EDID version or ALLM
// controls, so those operations report hal.ErrNotSupported.
package v4l2hal

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/logging"
	"github.com/smazurov/hdmiinput/pkg/linuxav/v4l2"
)

// Defaults applied to zero Options fields.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultCacheTTL     = 5 * time.Second
)

const portsKey = "hdmi"

// Options configures the backend.
type Options struct {
	// PollInterval is how often DV timings are re-read on every port.
	PollInterval time.Duration
	// CacheTTL bounds how long an enumerated device list is reused.
	CacheTTL time.Duration
	// EDIDPad is the receiver pad EDIDs are read from and written to.
	EDIDPad uint32
}

// HAL implements hal.HdmiInput over V4L2.
type HAL struct {
	opts   Options
	dev    device
	cache  *ttlcache.Cache[string, []v4l2.DeviceInfo]
	logger *slog.Logger

	mu       sync.Mutex
	selected int
	rect     [4]int
	sink     hal.EventSink
	state    map[string]portState
	closed   bool
}

// New creates a backend on the running kernel's V4L2 devices.
func New(opts Options) *HAL {
	return newHAL(opts, kernel{})
}

func newHAL(opts Options, dev device) *HAL {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	cache := ttlcache.New(ttlcache.WithTTL[string, []v4l2.DeviceInfo](opts.CacheTTL))
	go cache.Start()

	return &HAL{
		opts:     opts,
		dev:      dev,
		cache:    cache,
		logger:   logging.GetLogger("v4l2hal"),
		selected: hal.StopPort,
		state:    make(map[string]portState),
	}
}

// ports returns the HDMI devices sorted by path, from cache when fresh.
func (h *HAL) ports() ([]v4l2.DeviceInfo, error) {
	if item := h.cache.Get(portsKey); item != nil {
		return item.Value(), nil
	}

	devices, err := h.dev.FindHDMIDevices()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(devices, func(a, b v4l2.DeviceInfo) int {
		return strings.Compare(a.DevicePath, b.DevicePath)
	})
	h.cache.Set(portsKey, devices, ttlcache.DefaultTTL)
	return devices, nil
}

// invalidate drops the cached device list.
func (h *HAL) invalidate() {
	h.cache.DeleteAll()
}

func (h *HAL) guard(op string, port int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return hal.NewError(op, port, hal.ErrUnavailable)
	}
	return nil
}

// port resolves a port number to its device.
func (h *HAL) port(op string, port int) (v4l2.DeviceInfo, error) {
	if err := h.guard(op, port); err != nil {
		return v4l2.DeviceInfo{}, err
	}
	devices, err := h.ports()
	if err != nil {
		return v4l2.DeviceInfo{}, hal.NewError(op, port, errors.Join(hal.ErrUnavailable, err))
	}
	if port < 0 || port >= len(devices) {
		return v4l2.DeviceInfo{}, hal.NewError(op, port, hal.ErrInvalidPort)
	}
	return devices[port], nil
}

// NumberOfInputs implements hal.HdmiInput.
func (h *HAL) NumberOfInputs(_ context.Context) (int, error) {
	if err := h.guard("NumberOfInputs", -1); err != nil {
		return 0, err
	}
	devices, err := h.ports()
	if err != nil {
		return 0, hal.NewError("NumberOfInputs", -1, errors.Join(hal.ErrUnavailable, err))
	}
	return len(devices), nil
}

// IsPortConnected implements hal.HdmiInput. A port is connected unless the
// receiver reports no link or the node is gone.
func (h *HAL) IsPortConnected(_ context.Context, port int) (bool, error) {
	d, err := h.port("IsPortConnected", port)
	if err != nil {
		return false, err
	}
	return connected(h.dev.GetDVTimings(d.DevicePath).State), nil
}

// SelectPort implements hal.HdmiInput. V4L2 has no presentation path, so the
// selection is recorded and reported as status events.
func (h *HAL) SelectPort(ctx context.Context, port int) error {
	if port != hal.StopPort {
		if _, err := h.port("SelectPort", port); err != nil {
			return err
		}
	} else if err := h.guard("SelectPort", port); err != nil {
		return err
	}

	h.mu.Lock()
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

// Selected returns the presented port or hal.StopPort.
func (h *HAL) Selected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

// Rect returns the last rectangle passed to ScaleVideo.
func (h *HAL) Rect() (x, y, width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rect[0], h.rect[1], h.rect[2], h.rect[3]
}

// ScaleVideo implements hal.HdmiInput by recording the rectangle.
func (h *HAL) ScaleVideo(_ context.Context, x, y, width, height int) error {
	if err := h.guard("ScaleVideo", -1); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return hal.NewError("ScaleVideo", -1, errors.New("negative size"))
	}
	h.mu.Lock()
	h.rect = [4]int{x, y, width, height}
	h.mu.Unlock()
	return nil
}

// EDIDBytes implements hal.HdmiInput.
func (h *HAL) EDIDBytes(_ context.Context, port int) ([]byte, error) {
	d, err := h.port("EDIDBytes", port)
	if err != nil {
		return nil, err
	}
	edid, err := h.dev.GetEDID(d.DevicePath, h.opts.EDIDPad)
	if err != nil {
		return nil, hal.NewError("EDIDBytes", port, edidErr(err))
	}
	return edid, nil
}

// WriteEDID implements hal.HdmiInput.
func (h *HAL) WriteEDID(_ context.Context, port int, edid []byte) error {
	d, err := h.port("WriteEDID", port)
	if err != nil {
		return err
	}
	if err := v4l2.ValidateEDIDLength(len(edid)); err != nil {
		return hal.NewError("WriteEDID", port, err)
	}
	if err := h.dev.SetEDID(d.DevicePath, h.opts.EDIDPad, edid); err != nil {
		return hal.NewError("WriteEDID", port, edidErr(err))
	}
	h.logger.Info("EDID written", "port", port, "device", d.DevicePath, "bytes", len(edid))
	return nil
}

func edidErr(err error) error {
	if errors.Is(err, v4l2.ErrEDIDNotSupported) {
		return errors.Join(hal.ErrNotSupported, err)
	}
	return err
}

// SPDInfo implements hal.HdmiInput.
func (h *HAL) SPDInfo(_ context.Context, port int) ([]byte, error) {
	if _, err := h.port("SPDInfo", port); err != nil {
		return nil, err
	}
	return nil, hal.NewError("SPDInfo", port, hal.ErrNotSupported)
}

// SetEdidVersion implements hal.HdmiInput.
func (h *HAL) SetEdidVersion(_ context.Context, port int, _ hal.EdidVersion) error {
	if _, err := h.port("SetEdidVersion", port); err != nil {
		return err
	}
	return hal.NewError("SetEdidVersion", port, hal.ErrNotSupported)
}

// EdidVersion implements hal.HdmiInput.
func (h *HAL) EdidVersion(_ context.Context, port int) (hal.EdidVersion, error) {
	if _, err := h.port("EdidVersion", port); err != nil {
		return hal.EdidVersionUnset, err
	}
	return hal.EdidVersionUnset, hal.NewError("EdidVersion", port, hal.ErrNotSupported)
}

// SupportedGameFeatures implements hal.HdmiInput. V4L2 reports none.
func (h *HAL) SupportedGameFeatures(_ context.Context) ([]string, error) {
	if err := h.guard("SupportedGameFeatures", -1); err != nil {
		return nil, err
	}
	return []string{}, nil
}

// ALLMStatus implements hal.HdmiInput.
func (h *HAL) ALLMStatus(_ context.Context, port int) (bool, error) {
	if _, err := h.port("ALLMStatus", port); err != nil {
		return false, err
	}
	return false, hal.NewError("ALLMStatus", port, hal.ErrNotSupported)
}

// Close implements hal.HdmiInput. Later calls fail with hal.ErrUnavailable.
func (h *HAL) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.cache.Stop()
	return nil
}
