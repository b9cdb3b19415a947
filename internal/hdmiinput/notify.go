package hdmiinput

import (
	"context"
	"time"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/metrics"
)

// Fallbacks for video modes outside the platform enumeration.
const (
	defaultWidth      = 1920
	defaultHeight     = 1080
	defaultFrameRateN = 60000
	defaultFrameRateD = 1000
)

// notify publishes a notification unless the service was deinitialized.
func (s *Service) notify(event string, params map[string]any, start time.Time) {
	if !s.isActive() {
		s.logger.Debug("Dropping event after deinitialize", "event", event)
		return
	}
	s.bus.Publish(events.NotificationEvent{Event: event, Params: params})
	metrics.IncNotification(event)
	elapsed := time.Since(start)
	metrics.ObserveDuration(event, elapsed)
	s.logger.Debug("Notification sent", "event", event, "elapsed", elapsed)
}

func (s *Service) onHotplug(e events.HotplugEvent) {
	start := time.Now()
	if !s.isActive() {
		return
	}
	s.logger.Info("HDMI input hotplug", "port", e.Port, "connected", e.Connected)

	ctx, cancel := context.WithTimeout(context.Background(), s.eventTimeout)
	defer cancel()
	s.notify(EventDevicesChanged, map[string]any{"devices": s.Devices(ctx)}, start)
}

func (s *Service) onSignal(e events.SignalStatusEvent) {
	start := time.Now()
	s.logger.Info("HDMI input signal changed", "port", e.Port, "status", e.Status)
	s.notify(EventSignalChanged, map[string]any{
		"id":           e.Port,
		"locator":      Locator(e.Port),
		"signalStatus": e.Status.String(),
	}, start)
}

func (s *Service) onStatus(e events.InputStatusEvent) {
	start := time.Now()
	status := "stopped"
	if e.Presented {
		status = "started"
	}
	s.logger.Info("HDMI input status changed", "port", e.Port, "status", status)
	s.notify(EventInputStatusChanged, map[string]any{
		"id":      e.Port,
		"locator": Locator(e.Port),
		"status":  status,
	}, start)
}

func (s *Service) onVideoMode(e events.VideoModeEvent) {
	start := time.Now()
	s.logger.Info("HDMI input video mode changed",
		"port", e.Port,
		"resolution", e.Resolution.PixelResolution,
		"interlaced", e.Resolution.Interlaced,
		"frame_rate", e.Resolution.FrameRate)
	s.notify(EventVideoStreamInfo, VideoStreamInfo(e.Port, e.Resolution), start)
}

func (s *Service) onGameFeature(e events.GameFeatureStatusEvent) {
	start := time.Now()
	s.logger.Info("HDMI input game feature changed", "port", e.Port, "feature", e.Feature, "mode", e.Enabled)
	s.notify(EventGameFeatureStatus, map[string]any{
		"id":          e.Port,
		"gameFeature": e.Feature,
		"mode":        e.Enabled,
	}, start)
}

// VideoStreamInfo builds videoStreamInfoUpdate params for mode on port.
func VideoStreamInfo(port int, mode hal.VideoResolution) map[string]any {
	width, height, known := mode.PixelResolution.Size()
	if !known {
		width, height = defaultWidth, defaultHeight
	}
	num, den, known := mode.FrameRate.Fraction()
	if !known {
		num, den = defaultFrameRateN, defaultFrameRateD
	}
	return map[string]any{
		"id":          port,
		"locator":     Locator(port),
		"width":       width,
		"height":      height,
		"progressive": !mode.Interlaced,
		"frameRateN":  num,
		"frameRateD":  den,
	}
}
