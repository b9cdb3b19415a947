package hdmiinput

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hal"
	"github.com/smazurov/hdmiinput/internal/hal/sim"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
	"github.com/smazurov/hdmiinput/internal/version"
)

type fixture struct {
	hal    *sim.HAL
	bus    *events.Bus
	svc    *Service
	router *jsonrpc.Router
}

func newFixture(t *testing.T, opts ...sim.Option) *fixture {
	t.Helper()
	h := sim.New(3, opts...)
	bus := events.New()
	t.Cleanup(func() { bus.Close() })

	svc := New(h, bus)
	router, err := jsonrpc.NewRouter(Callsign, version.APIVersion)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	svc.Register(router)
	return &fixture{hal: h, bus: bus, svc: svc, router: router}
}

// call invokes method through the router and returns the decoded result.
func (f *fixture) call(t *testing.T, method string, params map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	resp := f.router.Handle(context.Background(), jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		Method:  Callsign + ".1." + method,
		Params:  raw,
		ID:      json.RawMessage("1"),
	}, nil)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error %v", method, resp.Error)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func assertSuccess(t *testing.T, method string, result map[string]any, want bool) {
	t.Helper()
	if got, _ := result["success"].(bool); got != want {
		t.Errorf("%s success = %v, want %v (result %v)", method, got, want, result)
	}
}

func TestStoi(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"  7", 7, false},
		{"+3", 3, false},
		{"-1", -1, false},
		{"12abc", 12, false},
		{"1.9", 1, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-", 0, true},
		{" +x", 0, true},
		{"2147483647", 2147483647, false},
		{"2147483648", 0, true},
		{"-2147483649", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := stoi(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("stoi(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("stoi(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetHDMIInputDevices(t *testing.T) {
	connected := sim.DefaultPort(1)
	connected.Connected = true
	f := newFixture(t, sim.WithPorts(sim.DefaultPort(0), connected))

	res := f.call(t, MethodGetDevices, nil)
	assertSuccess(t, MethodGetDevices, res, true)
	want := []any{
		map[string]any{"id": float64(0), "locator": "hdmiin://localhost/deviceid/0", "connected": "false"},
		map[string]any{"id": float64(1), "locator": "hdmiin://localhost/deviceid/1", "connected": "true"},
	}
	if !reflect.DeepEqual(res["devices"], want) {
		t.Errorf("devices = %v, want %v", res["devices"], want)
	}

	f.hal.InjectError("NumberOfInputs", errors.New("boom"))
	res = f.call(t, MethodGetDevices, nil)
	assertSuccess(t, MethodGetDevices, res, true)
	if devices, _ := res["devices"].([]any); devices == nil || len(devices) != 0 {
		t.Errorf("devices on HAL error = %v, want empty list", res["devices"])
	}
}

// countingHAL overrides the port count and fails IsPortConnected on one port.
type countingHAL struct {
	*sim.HAL
	count    int
	failPort int
}

func (h *countingHAL) NumberOfInputs(context.Context) (int, error) {
	return h.count, nil
}

func (h *countingHAL) IsPortConnected(ctx context.Context, port int) (bool, error) {
	if port == h.failPort {
		return false, hal.NewError("IsPortConnected", port, hal.ErrUnavailable)
	}
	return h.HAL.IsPortConnected(ctx, port)
}

func TestDevicesPortCount(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		failPort int
		wantIDs  []int
	}{
		{"negative count", -1, -1, nil},
		{"zero count", 0, -1, nil},
		{"all ports", 3, -1, []int{0, 1, 2}},
		{"last port fails", 3, 2, []int{0, 1}},
		{"first port fails", 3, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := events.New()
			t.Cleanup(func() { bus.Close() })
			svc := New(&countingHAL{HAL: sim.New(3), count: tt.count, failPort: tt.failPort}, bus)

			devices := svc.Devices(context.Background())
			if devices == nil {
				t.Fatal("Devices() = nil, want non-nil list")
			}
			var ids []int
			for _, d := range devices {
				ids = append(ids, d.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("device ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestStartStopHdmiInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		params   map[string]any
		want     bool
		selected int
	}{
		{"string port", map[string]any{"portId": "1"}, true, 1},
		{"numeric port", map[string]any{"portId": 2}, true, 2},
		{"missing port", map[string]any{}, false, 2},
		{"garbage port", map[string]any{"portId": "abc"}, false, 2},
		{"out of range", map[string]any{"portId": "9"}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSuccess(t, MethodStartInput, f.call(t, MethodStartInput, tt.params), tt.want)
			if got := f.hal.Selected(); got != tt.selected {
				t.Errorf("Selected() = %d, want %d", got, tt.selected)
			}
		})
	}

	assertSuccess(t, MethodStopInput, f.call(t, MethodStopInput, nil), true)
	if got := f.hal.Selected(); got != hal.StopPort {
		t.Errorf("Selected() after stop = %d, want %d", got, hal.StopPort)
	}

	f.hal.InjectError("SelectPort", errors.New("boom"))
	assertSuccess(t, MethodStopInput, f.call(t, MethodStopInput, nil), false)
}

func TestSetVideoRectangle(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    bool
		message string
		rect    sim.Rect
	}{
		{"full", map[string]any{"x": "10", "y": "20", "w": "640", "h": "480"}, true, "", sim.Rect{X: 10, Y: 20, Width: 640, Height: 480}},
		{"numbers", map[string]any{"x": 1, "y": 2, "w": 3, "h": 4}, true, "", sim.Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		{"missing y defaults", map[string]any{"x": "5", "w": "100", "h": "50"}, true, "", sim.Rect{X: 5, Width: 100, Height: 50}},
		{"no coordinates", map[string]any{"w": "1", "h": "1"}, false, "please specify coordinates (x,y)", sim.Rect{}},
		{"no size", map[string]any{"x": "1", "y": "1"}, false, "please specify window width and height (w,h)", sim.Rect{}},
		{"bad number", map[string]any{"x": "a", "y": "1", "w": "1", "h": "1"}, false, "", sim.Rect{}},
		{"hal error", map[string]any{"x": "0", "y": "0", "w": "-1", "h": "1"}, false, "failed to set scale", sim.Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.call(t, MethodSetVideoRectangle, tt.params)
			assertSuccess(t, MethodSetVideoRectangle, res, tt.want)
			if msg, _ := res["message"].(string); msg != tt.message {
				t.Errorf("message = %q, want %q", msg, tt.message)
			}
			if got := f.hal.Rect(); got != tt.rect {
				t.Errorf("Rect() = %+v, want %+v", got, tt.rect)
			}
		})
	}
}

func TestWriteReadEDID(t *testing.T) {
	f := newFixture(t)
	edid := []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x10}

	res := f.call(t, MethodWriteEDID, map[string]any{"deviceId": 1, "message": base64.StdEncoding.EncodeToString(edid)})
	assertSuccess(t, MethodWriteEDID, res, true)

	res = f.call(t, MethodReadEDID, map[string]any{"deviceId": "1"})
	assertSuccess(t, MethodReadEDID, res, true)
	if got := res["EDID"]; got != base64.StdEncoding.EncodeToString(edid) {
		t.Errorf("EDID = %v", got)
	}

	// deviceId defaults to 0
	res = f.call(t, MethodReadEDID, nil)
	assertSuccess(t, MethodReadEDID, res, true)
	state, _ := f.hal.PortState(0)
	if got := res["EDID"]; got != base64.StdEncoding.EncodeToString(state.EDID) {
		t.Errorf("default EDID = %v", got)
	}

	unpadded := base64.RawStdEncoding.EncodeToString(edid[:8])
	assertSuccess(t, MethodWriteEDID, f.call(t, MethodWriteEDID, map[string]any{"deviceId": "0", "message": unpadded}), true)

	for name, params := range map[string]map[string]any{
		"missing message": {"deviceId": "0"},
		"missing device":  {"message": unpadded},
		"bad base64":      {"deviceId": "0", "message": "!!!"},
		"empty edid":      {"deviceId": "0", "message": ""},
		"bad port":        {"deviceId": "7", "message": unpadded},
	} {
		t.Run(name, func(t *testing.T) {
			assertSuccess(t, MethodWriteEDID, f.call(t, MethodWriteEDID, params), false)
		})
	}

	res = f.call(t, MethodReadEDID, map[string]any{"deviceId": "8"})
	assertSuccess(t, MethodReadEDID, res, false)
	if res["EDID"] != "" {
		t.Errorf("EDID on error = %v, want empty", res["EDID"])
	}
}

func TestReadEDIDRefused(t *testing.T) {
	oversized := sim.DefaultPort(0)
	oversized.EDID = make([]byte, maxEDIDSize+1)
	empty := sim.DefaultPort(1)
	empty.EDID = nil
	limit := sim.DefaultPort(2)
	limit.EDID = make([]byte, maxEDIDSize)
	f := newFixture(t, sim.WithPorts(oversized, empty, limit))

	for _, port := range []string{"0", "1"} {
		res := f.call(t, MethodReadEDID, map[string]any{"deviceId": port})
		assertSuccess(t, MethodReadEDID, res, false)
		got, present := res["EDID"]
		if !present || got != "" {
			t.Errorf("port %s EDID = %v (present %v), want empty string", port, got, present)
		}
	}

	res := f.call(t, MethodReadEDID, map[string]any{"deviceId": "2"})
	assertSuccess(t, MethodReadEDID, res, true)
	if got, _ := res["EDID"].(string); len(got) != base64.StdEncoding.EncodedLen(maxEDIDSize) {
		t.Errorf("65535 byte EDID encoded length = %d", len(got))
	}
}

func TestWriteEDIDNotSupported(t *testing.T) {
	f := newFixture(t)
	f.hal.InjectError("WriteEDID", hal.ErrNotSupported)
	res := f.call(t, MethodWriteEDID, map[string]any{"deviceId": "0", "message": "AAE="})
	assertSuccess(t, MethodWriteEDID, res, true)
}

func TestSPD(t *testing.T) {
	f := newFixture(t)
	frame := hal.SPDInfoFrame{
		PacketType:  0x83,
		Version:     1,
		Length:      25,
		VendorName:  "ACME",
		ProductDesc: "Console",
		SourceInfo:  0x08,
	}
	if err := f.hal.SetSPD(0, frame.Bytes()); err != nil {
		t.Fatal(err)
	}

	res := f.call(t, MethodGetRawSPD, map[string]any{"portId": "0"})
	assertSuccess(t, MethodGetRawSPD, res, true)
	if got := res["HDMISPD"]; got != base64.RawStdEncoding.EncodeToString(frame.Bytes()) {
		t.Errorf("raw HDMISPD = %v", got)
	}

	res = f.call(t, MethodGetSPD, map[string]any{"portId": 0})
	assertSuccess(t, MethodGetSPD, res, true)
	want := "Packet Type:83,Version:1,Length:25,vendor name:ACME,product des:Console,source info:08"
	if got := res["HDMISPD"]; got != want {
		t.Errorf("HDMISPD = %v, want %q", got, want)
	}

	// port 1 has no infoframe
	assertSuccess(t, MethodGetRawSPD, f.call(t, MethodGetRawSPD, map[string]any{"portId": "1"}), false)
	assertSuccess(t, MethodGetSPD, f.call(t, MethodGetSPD, map[string]any{"portId": "1"}), false)
	assertSuccess(t, MethodGetSPD, f.call(t, MethodGetSPD, nil), false)
}

func TestEdidVersion(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, MethodGetEdidVersion, map[string]any{"portId": "0"})
	assertSuccess(t, MethodGetEdidVersion, res, true)
	if res["edidVersion"] != "HDMI1.4" {
		t.Errorf("edidVersion = %v, want HDMI1.4", res["edidVersion"])
	}

	assertSuccess(t, MethodSetEdidVersion, f.call(t, MethodSetEdidVersion, map[string]any{"portId": "0", "edidVersion": "HDMI2.0"}), true)
	res = f.call(t, MethodGetEdidVersion, map[string]any{"portId": "0"})
	if res["edidVersion"] != "HDMI2.0" {
		t.Errorf("edidVersion = %v, want HDMI2.0", res["edidVersion"])
	}

	assertSuccess(t, MethodSetEdidVersion, f.call(t, MethodSetEdidVersion, map[string]any{"portId": "0", "edidVersion": "HDMI3.0"}), false)
	assertSuccess(t, MethodSetEdidVersion, f.call(t, MethodSetEdidVersion, map[string]any{"portId": "0"}), false)
	assertSuccess(t, MethodGetEdidVersion, f.call(t, MethodGetEdidVersion, nil), false)
	assertSuccess(t, MethodGetEdidVersion, f.call(t, MethodGetEdidVersion, map[string]any{"portId": "5"}), false)
}

func TestGameFeatures(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, MethodSupportedGameFeatures, nil)
	assertSuccess(t, MethodSupportedGameFeatures, res, true)
	if !reflect.DeepEqual(res["supportedGameFeatures"], []any{"ALLM"}) {
		t.Errorf("supportedGameFeatures = %v", res["supportedGameFeatures"])
	}

	if err := f.hal.SetALLM(context.Background(), 1, true); err != nil {
		t.Fatal(err)
	}
	res = f.call(t, MethodGameFeatureStatus, map[string]any{"portId": "1", "gameFeature": "ALLM"})
	assertSuccess(t, MethodGameFeatureStatus, res, true)
	if res["mode"] != true {
		t.Errorf("mode = %v, want true", res["mode"])
	}

	f.hal.InjectError("ALLMStatus", errors.New("boom"))
	res = f.call(t, MethodGameFeatureStatus, map[string]any{"portId": "1", "gameFeature": "ALLM"})
	assertSuccess(t, MethodGameFeatureStatus, res, true)
	if mode, present := res["mode"]; !present || mode != false {
		t.Errorf("mode on HAL error = %v (present %v), want false", mode, present)
	}

	res = f.call(t, MethodGameFeatureStatus, map[string]any{"portId": "1", "gameFeature": "VRR"})
	assertSuccess(t, MethodGameFeatureStatus, res, false)
	if res["message"] != "Mode is not supported. Supported mode: ALLM" {
		t.Errorf("message = %v", res["message"])
	}
}

func TestNoGameFeatures(t *testing.T) {
	f := newFixture(t, sim.WithFeatures())
	res := f.call(t, MethodSupportedGameFeatures, nil)
	assertSuccess(t, MethodSupportedGameFeatures, res, false)
	if _, present := res["supportedGameFeatures"]; present {
		t.Errorf("supportedGameFeatures present on empty list: %v", res)
	}
}

func TestVideoStreamInfo(t *testing.T) {
	tests := []struct {
		name string
		mode hal.VideoResolution
		want map[string]any
	}{
		{
			name: "1080p60",
			mode: hal.VideoResolution{PixelResolution: hal.Resolution1920x1080, FrameRate: hal.FrameRate60},
			want: map[string]any{"width": 1920, "height": 1080, "progressive": true, "frameRateN": 60000, "frameRateD": 1000},
		},
		{
			name: "2160p59.94",
			mode: hal.VideoResolution{PixelResolution: hal.Resolution3840x2160, FrameRate: hal.FrameRate59_94},
			want: map[string]any{"width": 3840, "height": 2160, "progressive": true, "frameRateN": 60000, "frameRateD": 1001},
		},
		{
			name: "480i unknown rate",
			mode: hal.VideoResolution{PixelResolution: hal.Resolution720x480, Interlaced: true},
			want: map[string]any{"width": 720, "height": 480, "progressive": false, "frameRateN": 60000, "frameRateD": 1000},
		},
		{
			name: "unknown resolution",
			mode: hal.VideoResolution{PixelResolution: 42, FrameRate: hal.FrameRate25},
			want: map[string]any{"width": 1920, "height": 1080, "progressive": true, "frameRateN": 25000, "frameRateD": 1000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VideoStreamInfo(2, tt.mode)
			tt.want["id"] = 2
			tt.want["locator"] = "hdmiin://localhost/deviceid/2"
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VideoStreamInfo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func waitNotification(t *testing.T, ch <-chan events.NotificationEvent) events.NotificationEvent {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return events.NotificationEvent{}
	}
}

func subscribeNotifications(t *testing.T, bus *events.Bus) <-chan events.NotificationEvent {
	t.Helper()
	ch := make(chan events.NotificationEvent, 16)
	unsub := bus.Subscribe(func(e events.NotificationEvent) { ch <- e })
	t.Cleanup(unsub)
	return ch
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Initialize(); err != nil {
		t.Fatal(err)
	}
	defer f.svc.Deinitialize()
	if err := f.svc.Initialize(); err == nil {
		t.Error("second Initialize() succeeded")
	}
	ch := subscribeNotifications(t, f.bus)

	if err := f.hal.Plug(context.Background(), 0, true); err != nil {
		t.Fatal(err)
	}
	f.bus.Publish(events.HotplugEvent{Port: 0, Connected: true})
	n := waitNotification(t, ch)
	if n.Event != EventDevicesChanged {
		t.Fatalf("event = %q, want %q", n.Event, EventDevicesChanged)
	}
	devices, _ := n.Params["devices"].([]Device)
	if len(devices) != 3 || devices[0].Connected != "true" {
		t.Errorf("devices = %+v", n.Params["devices"])
	}

	tests := []struct {
		name  string
		ev    events.Event
		event string
		want  map[string]any
	}{
		{
			name:  "signal",
			ev:    events.SignalStatusEvent{Port: 1, Status: hal.SignalStable},
			event: EventSignalChanged,
			want:  map[string]any{"id": 1, "locator": Locator(1), "signalStatus": "stableSignal"},
		},
		{
			name:  "unknown signal",
			ev:    events.SignalStatusEvent{Port: 1, Status: hal.SignalStatus(9)},
			event: EventSignalChanged,
			want:  map[string]any{"id": 1, "locator": Locator(1), "signalStatus": "none"},
		},
		{
			name:  "status started",
			ev:    events.InputStatusEvent{Port: 2, Presented: true},
			event: EventInputStatusChanged,
			want:  map[string]any{"id": 2, "locator": Locator(2), "status": "started"},
		},
		{
			name:  "status stopped",
			ev:    events.InputStatusEvent{Port: 2},
			event: EventInputStatusChanged,
			want:  map[string]any{"id": 2, "locator": Locator(2), "status": "stopped"},
		},
		{
			name:  "video mode",
			ev:    events.VideoModeEvent{Port: 0, Resolution: hal.VideoResolution{PixelResolution: hal.Resolution1280x720, FrameRate: hal.FrameRate50}},
			event: EventVideoStreamInfo,
			want: map[string]any{
				"id": 0, "locator": Locator(0), "width": 1280, "height": 720,
				"progressive": true, "frameRateN": 50000, "frameRateD": 1000,
			},
		},
		{
			name:  "allm",
			ev:    events.GameFeatureStatusEvent{Port: 0, Feature: hal.GameFeatureALLM, Enabled: true},
			event: EventGameFeatureStatus,
			want:  map[string]any{"id": 0, "gameFeature": "ALLM", "mode": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.bus.Publish(tt.ev)
			n := waitNotification(t, ch)
			if n.Event != tt.event {
				t.Fatalf("event = %q, want %q", n.Event, tt.event)
			}
			if !reflect.DeepEqual(n.Params, tt.want) {
				t.Errorf("params = %v, want %v", n.Params, tt.want)
			}
		})
	}
}

func TestDeinitializeDropsEvents(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Initialize(); err != nil {
		t.Fatal(err)
	}
	f.svc.Deinitialize()
	f.svc.Deinitialize()
	ch := subscribeNotifications(t, f.bus)

	f.bus.Publish(events.SignalStatusEvent{Port: 0, Status: hal.SignalStable})
	select {
	case n := <-ch:
		t.Errorf("notification after deinitialize: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFormatSPDZeroFill(t *testing.T) {
	got := FormatSPD(hal.ParseSPD([]byte{0x83, 0x01}))
	want := "Packet Type:83,Version:1,Length:0,vendor name:,product des:,source info:00"
	if got != want {
		t.Errorf("FormatSPD() = %q, want %q", got, want)
	}
}
