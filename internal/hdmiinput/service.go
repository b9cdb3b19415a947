// Package hdmiinput is the HdmiInput service: it validates JSON-RPC
// parameters, calls the HDMI input HAL and turns platform events into
// JSON notifications.
package hdmiinput

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
	"github.com/smazurov/hdmiinput/internal/logging"
	"github.com/smazurov/hdmiinput/internal/metrics"
)

// Callsign is the JSON-RPC callsign of the service.
const Callsign = "org.rdk.HdmiInput"

// Method names.
const (
	MethodGetDevices            = "getHDMIInputDevices"
	MethodWriteEDID             = "writeEDID"
	MethodReadEDID              = "readEDID"
	MethodGetRawSPD             = "getRawHDMISPD"
	MethodGetSPD                = "getHDMISPD"
	MethodSetEdidVersion        = "setEdidVersion"
	MethodGetEdidVersion        = "getEdidVersion"
	MethodStartInput            = "startHdmiInput"
	MethodStopInput             = "stopHdmiInput"
	MethodSetVideoRectangle     = "setVideoRectangle"
	MethodSupportedGameFeatures = "getSupportedGameFeatures"
	MethodGameFeatureStatus     = "getHdmiGameFeatureStatus"
)

// Notification names.
const (
	EventDevicesChanged     = "onDevicesChanged"
	EventSignalChanged      = "onSignalChanged"
	EventInputStatusChanged = "onInputStatusChanged"
	EventVideoStreamInfo    = "videoStreamInfoUpdate"
	EventGameFeatureStatus  = "hdmiGameFeatureStatusUpdate"
)

const defaultEventTimeout = 5 * time.Second

// Service implements the HdmiInput methods on top of a HAL.
type Service struct {
	hal          hal.HdmiInput
	bus          *events.Bus
	logger       *slog.Logger
	eventTimeout time.Duration

	mu     sync.Mutex
	unsubs []func()
	active bool
}

// New creates a service. Call Initialize to start translating events.
func New(h hal.HdmiInput, bus *events.Bus) *Service {
	return &Service{
		hal:          h,
		bus:          bus,
		logger:       logging.GetLogger("hdmiinput"),
		eventTimeout: defaultEventTimeout,
	}
}

// Initialize subscribes to platform events on the bus.
func (s *Service) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return fmt.Errorf("hdmiinput: already initialized")
	}
	s.unsubs = []func(){
		s.bus.Subscribe(s.onHotplug),
		s.bus.Subscribe(s.onSignal),
		s.bus.Subscribe(s.onStatus),
		s.bus.Subscribe(s.onVideoMode),
		s.bus.Subscribe(s.onGameFeature),
	}
	s.active = true
	s.logger.Info("HdmiInput service initialized")
	return nil
}

// Deinitialize drops the bus subscriptions. Events still in flight are
// discarded.
func (s *Service) Deinitialize() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	wasActive := s.active
	s.active = false
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if wasActive {
		s.logger.Info("HdmiInput service deinitialized")
	}
}

func (s *Service) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Register adds every method to r.
func (s *Service) Register(r *jsonrpc.Router) {
	methods := map[string]func(context.Context, jsonrpc.Params) outcome{
		MethodGetDevices:            s.getHDMIInputDevices,
		MethodWriteEDID:             s.writeEDID,
		MethodReadEDID:              s.readEDID,
		MethodGetRawSPD:             s.getRawHDMISPD,
		MethodGetSPD:                s.getHDMISPD,
		MethodSetEdidVersion:        s.setEdidVersion,
		MethodGetEdidVersion:        s.getEdidVersion,
		MethodStartInput:            s.startHdmiInput,
		MethodStopInput:             s.stopHdmiInput,
		MethodSetVideoRectangle:     s.setVideoRectangle,
		MethodSupportedGameFeatures: s.getSupportedGameFeatures,
		MethodGameFeatureStatus:     s.getHdmiGameFeatureStatus,
	}
	for name, fn := range methods {
		r.Register(name, s.profiled(name, fn))
	}
}

// profiled times fn and records the outcome.
func (s *Service) profiled(name string, fn func(context.Context, jsonrpc.Params) outcome) jsonrpc.HandlerFunc {
	return func(ctx context.Context, params jsonrpc.Params) (any, error) {
		start := time.Now()
		res := fn(ctx, params)
		elapsed := time.Since(start)
		metrics.ObserveCall(name, res.OK(), elapsed)
		s.logger.Debug("Method finished", "method", name, "success", res.OK(), "elapsed", elapsed)
		return res, nil
	}
}

// halError logs a HAL failure and counts it.
func (s *Service) halError(method string, err error) {
	metrics.IncHALError(hal.Op(err))
	s.logger.Warn("HAL call failed", "method", method, "error", err)
}
