//go:build linux

package v4l2hal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/pkg/linuxav/hotplug"
	"github.com/smazurov/hdmiinput/pkg/linuxav/v4l2"
)

// sourceChangeTimeout bounds each wait so watchers notice cancellation.
const sourceChangeTimeout = 1000

// enumerateDelay gives the kernel time to finish registering a new node.
const enumerateDelay = 500 * time.Millisecond

// watcher turns device state changes into platform events.
type watcher struct {
	h    *HAL
	sink hal.EventSink

	mu       sync.Mutex
	watching map[string]context.CancelFunc
}

// Watch reports hotplug, signal and video-mode changes to sink until ctx is
// cancelled. Changes are picked up from kernel uevents, V4L2 source-change
// events and a periodic DV-timings poll.
func (h *HAL) Watch(ctx context.Context, sink hal.EventSink) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return hal.NewError("Watch", -1, hal.ErrUnavailable)
	}
	h.sink = sink
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.sink = nil
		h.mu.Unlock()
	}()

	w := &watcher{h: h, sink: sink, watching: make(map[string]context.CancelFunc)}
	defer w.stopAll()

	w.refresh(ctx, false)

	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(h.opts.PollInterval),
		gocron.NewTask(func() { w.refresh(ctx, true) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}
	s.Start()
	defer func() {
		if err := s.Shutdown(); err != nil {
			h.logger.Warn("Failed to stop poll scheduler", "error", err)
		}
	}()

	h.logger.Info("Watching HDMI inputs", "poll_interval", h.opts.PollInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.uevents(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return nil
}

// uevents refreshes on video4linux and extcon uevents.
func (w *watcher) uevents(ctx context.Context) {
	logger := w.h.logger

	mon, err := hotplug.NewMonitor()
	if err != nil {
		logger.Warn("Uevent monitor unavailable, relying on polling", "error", err)
		return
	}
	defer mon.Close()

	mon.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)
	mon.AddSubsystemFilter(hotplug.SubsystemExtcon)

	ch := make(chan hotplug.Event, 16)
	go func() {
		if err := mon.Run(ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Uevent monitor stopped", "error", err)
		}
	}()

	for ev := range ch {
		switch ev.Subsystem {
		case hotplug.SubsystemVideo4Linux:
			if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
				continue
			}
			logger.Debug("Video node uevent", "action", ev.Action, "node", ev.Node())
			w.h.invalidate()
			if ev.Action == hotplug.ActionAdd {
				select {
				case <-time.After(enumerateDelay):
				case <-ctx.Done():
					continue
				}
			}
		case hotplug.SubsystemExtcon:
			state, ok := ev.CableState()
			if !ok {
				continue
			}
			logger.Debug("HDMI cable uevent", "connected", state, "kobj", ev.KObj)
		}
		w.refresh(ctx, true)
	}
}

// refresh re-reads every port and emits events for changes when emit is set.
func (w *watcher) refresh(ctx context.Context, emit bool) {
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	h := w.h
	devices, err := h.ports()
	if err != nil {
		h.logger.Warn("Failed to enumerate HDMI inputs", "error", err)
		return
	}

	seen := make(map[string]bool, len(devices))
	for i, d := range devices {
		seen[d.DevicePath] = true
		next := stateOf(i, h.dev.GetDVTimings(d.DevicePath))

		h.mu.Lock()
		prev, known := h.state[d.DevicePath]
		h.state[d.DevicePath] = next
		h.mu.Unlock()

		if _, ok := w.watching[d.DevicePath]; !ok {
			w.watch(ctx, d.DevicePath)
		}

		if emit {
			if !known {
				prev = portState{port: i, signal: hal.SignalNone}
			}
			w.emit(ctx, prev, next)
		}
	}

	for path, cancel := range w.watching {
		if seen[path] {
			continue
		}
		cancel()
		delete(w.watching, path)

		h.mu.Lock()
		prev := h.state[path]
		delete(h.state, path)
		h.mu.Unlock()

		h.logger.Info("HDMI input removed", "device", path, "port", prev.port)
		if emit && prev.connected {
			w.report(ctx, "Hotplug", w.sink.Hotplug(ctx, prev.port, false))
		}
	}
}

func (w *watcher) emit(ctx context.Context, prev, next portState) {
	port := next.port
	if prev.connected != next.connected {
		w.report(ctx, "Hotplug", w.sink.Hotplug(ctx, port, next.connected))
	}
	if prev.signal != next.signal {
		w.report(ctx, "SignalChanged", w.sink.SignalChanged(ctx, port, next.signal))
	}
	if next.signal == hal.SignalStable && (prev.signal != hal.SignalStable || prev.mode != next.mode) {
		w.report(ctx, "VideoModeChanged", w.sink.VideoModeChanged(ctx, port, next.mode))
	}
}

func (w *watcher) report(ctx context.Context, op string, err error) {
	if err != nil && ctx.Err() == nil {
		w.h.logger.Warn("Failed to publish platform event", "op", op, "error", err)
	}
}

// watch starts a source-change waiter for path (must hold w.mu).
func (w *watcher) watch(ctx context.Context, path string) {
	wctx, cancel := context.WithCancel(ctx)
	w.watching[path] = cancel

	go func() {
		for wctx.Err() == nil {
			changes, err := w.h.dev.WaitForSourceChange(path, sourceChangeTimeout)
			if errors.Is(err, v4l2.ErrEventsNotSupported) {
				w.h.logger.Debug("Source change events not supported, polling only", "device", path)
				return
			}
			if err != nil {
				w.h.logger.Debug("Source change wait failed", "device", path, "error", err)
				// Forget the waiter so the next refresh re-arms it.
				w.mu.Lock()
				if wctx.Err() == nil {
					delete(w.watching, path)
					cancel()
				}
				w.mu.Unlock()
				return
			}
			if changes > 0 {
				w.h.logger.Debug("Source change event", "device", path, "changes", changes)
				w.refresh(wctx, true)
			}
		}
	}()
}

func (w *watcher) stopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, cancel := range w.watching {
		cancel()
		delete(w.watching, path)
	}
}
