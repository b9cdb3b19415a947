package dsmgr

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startBus starts an embedded server on a random port and connects to it.
func startBus(t *testing.T) (*Server, *nats.Conn) {
	t.Helper()

	srv := NewServer(ServerOptions{Port: -1, Name: "test-bus", Logger: testLogger()})
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(srv.Stop)

	conn, err := Connect(srv.ClientURL(), "test-client", testLogger())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(conn.Close)

	return srv, conn
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer(ServerOptions{Port: -1, Name: "test-server", Logger: testLogger()})

	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if err := srv.Start(); err == nil {
		t.Error("second Start() should fail")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL should not be empty")
	}

	srv.Stop()

	if srv.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
	if srv.NumClients() != 0 {
		t.Error("NumClients should be 0 after Stop()")
	}
	srv.Stop()
}

func TestMessagePayloads(t *testing.T) {
	tests := []struct {
		name string
		msg  marshaler
		want string
	}{
		{"hotplug", HotplugMessage{Port: 0, Connected: true}, `{"port":0,"isPortConnected":true}`},
		{"signal", SignalMessage{Port: 0, Status: hal.SignalStable}, `{"port":0,"status":3}`},
		{"status", StatusMessage{Port: 1, Presented: true}, `{"port":1,"isPresented":true}`},
		{
			"videomode",
			VideoModeMessage{Port: 0, Resolution: hal.VideoResolution{PixelResolution: hal.Resolution1920x1080, FrameRate: hal.FrameRate60}},
			`{"port":0,"resolution":{"pixelResolution":3,"interlaced":false,"frameRate":4}}`,
		},
		{"allm", ALLMMessage{Port: 2, Enabled: true}, `{"port":2,"allmMode":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.Marshal()
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestBridgeForwardsEvents(t *testing.T) {
	_, conn := startBus(t)

	bus := events.New()
	defer bus.Close()

	ch := make(chan any, 10)
	defer events.SubscribeToChannel[events.HotplugEvent](bus, ch)()
	defer events.SubscribeToChannel[events.SignalStatusEvent](bus, ch)()
	defer events.SubscribeToChannel[events.InputStatusEvent](bus, ch)()
	defer events.SubscribeToChannel[events.VideoModeEvent](bus, ch)()
	defer events.SubscribeToChannel[events.GameFeatureStatusEvent](bus, ch)()

	bridge := NewBridge(conn, bus, testLogger())
	if err := bridge.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer bridge.Unregister()

	if !bridge.IsConnected() {
		t.Fatal("bridge should be connected")
	}

	pub := NewPublisher(conn, testLogger())
	ctx := context.Background()
	mode := hal.VideoResolution{PixelResolution: hal.Resolution1280x720, FrameRate: hal.FrameRate50}

	tests := []struct {
		name    string
		publish func() error
		want    any
	}{
		{"hotplug", func() error { return pub.Hotplug(ctx, 1, true) }, events.HotplugEvent{Port: 1, Connected: true}},
		{"signal", func() error { return pub.SignalChanged(ctx, 0, hal.SignalUnstable) }, events.SignalStatusEvent{Port: 0, Status: hal.SignalUnstable}},
		{"status", func() error { return pub.StatusChanged(ctx, 2, false) }, events.InputStatusEvent{Port: 2, Presented: false}},
		{"videomode", func() error { return pub.VideoModeChanged(ctx, 0, mode) }, events.VideoModeEvent{Port: 0, Resolution: mode}},
		{"allm", func() error { return pub.ALLMChanged(ctx, 1, true) }, events.GameFeatureStatusEvent{Port: 1, Feature: hal.GameFeatureALLM, Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.publish(); err != nil {
				t.Fatalf("publish error = %v", err)
			}
			select {
			case got := <-ch:
				if got != tt.want {
					t.Errorf("event = %#v, want %#v", got, tt.want)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timeout waiting for event")
			}
		})
	}
}

func TestBridgeDropsUndecodable(t *testing.T) {
	_, conn := startBus(t)

	bus := events.New()
	defer bus.Close()

	ch := make(chan any, 10)
	defer events.SubscribeToChannel[events.HotplugEvent](bus, ch)()

	bridge := NewBridge(conn, bus, testLogger())
	if err := bridge.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer bridge.Unregister()

	if err := conn.Publish(SubjectHotplug, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.Publish(SubjectHotplug, []byte(`{"port":3,"isPortConnected":true}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		want := events.HotplugEvent{Port: 3, Connected: true}
		if got != want {
			t.Errorf("event = %#v, want %#v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBridgeUnregister(t *testing.T) {
	_, conn := startBus(t)

	bus := events.New()
	defer bus.Close()

	ch := make(chan any, 10)
	defer events.SubscribeToChannel[events.HotplugEvent](bus, ch)()

	bridge := NewBridge(conn, bus, testLogger())
	if err := bridge.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := bridge.Register(); err != nil {
		t.Fatalf("second Register() error = %v", err)
	}
	bridge.Unregister()
	bridge.Unregister()

	pub := NewPublisher(conn, testLogger())
	if err := pub.Hotplug(context.Background(), 0, true); err != nil {
		t.Fatal(err)
	}
	if err := pub.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		t.Errorf("unexpected event after Unregister: %#v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPublisherCanceledContext(t *testing.T) {
	_, conn := startBus(t)
	pub := NewPublisher(conn, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pub.Hotplug(ctx, 0, true); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestNotificationForwarder(t *testing.T) {
	_, conn := startBus(t)

	bus := events.New()
	defer bus.Close()

	msgs := make(chan *nats.Msg, 4)
	sub, err := conn.ChanSubscribe(SubjectNotifyPrefix+".>", msgs)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Unsubscribe() }()
	if err := conn.Flush(); err != nil {
		t.Fatal(err)
	}

	fwd := NewNotificationForwarder(conn, bus, testLogger())
	fwd.Start()
	defer fwd.Stop()

	bus.Publish(events.NotificationEvent{
		Event:  "onSignalChanged",
		Params: map[string]any{"id": 0, "signalStatus": "stableSignal"},
	})

	select {
	case msg := <-msgs:
		if msg.Subject != "hdmiinput.notify.onSignalChanged" {
			t.Errorf("subject = %q", msg.Subject)
		}
		var params map[string]any
		if err := json.Unmarshal(msg.Data, &params); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if params["signalStatus"] != "stableSignal" {
			t.Errorf("params = %v", params)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for forwarded notification")
	}
}
