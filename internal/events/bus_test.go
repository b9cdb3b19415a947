package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/smazurov/hdmiinput/internal/hal"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SignalStatusEvent, 1)

	unsub := bus.Subscribe(func(e SignalStatusEvent) { received <- e })
	defer unsub()

	bus.Publish(SignalStatusEvent{Port: 1, Status: hal.SignalStable})

	select {
	case got := <-received:
		if got.Port != 1 || got.Status != hal.SignalStable {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_TypeRouting(t *testing.T) {
	bus := New()
	hotplugs := make(chan HotplugEvent, 1)
	statuses := make(chan InputStatusEvent, 1)

	defer bus.Subscribe(func(e HotplugEvent) { hotplugs <- e })()
	defer bus.Subscribe(func(e InputStatusEvent) { statuses <- e })()

	bus.Publish(InputStatusEvent{Port: 0, Presented: true})

	select {
	case <-statuses:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status event")
	}
	select {
	case e := <-hotplugs:
		t.Fatalf("hotplug subscriber received %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	r1 := make(chan NotificationEvent, 1)
	r2 := make(chan NotificationEvent, 1)

	defer bus.Subscribe(func(e NotificationEvent) { r1 <- e })()
	defer bus.Subscribe(func(e NotificationEvent) { r2 <- e })()

	bus.Publish(NotificationEvent{Event: "onDevicesChanged"})

	for i, ch := range []chan NotificationEvent{r1, r2} {
		select {
		case e := <-ch:
			if e.Event != "onDevicesChanged" {
				t.Errorf("subscriber %d got %q", i, e.Event)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan GameFeatureStatusEvent, 2)

	unsub := bus.Subscribe(func(e GameFeatureStatusEvent) { received <- e })

	bus.Publish(GameFeatureStatusEvent{Port: 0, Feature: hal.GameFeatureALLM, Enabled: true})
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	unsub()
	bus.Publish(GameFeatureStatusEvent{Port: 0, Feature: hal.GameFeatureALLM})

	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_PreservesOrder(t *testing.T) {
	bus := New()
	received := make(chan VideoModeEvent, 10)
	defer bus.Subscribe(func(e VideoModeEvent) { received <- e })()

	for port := range 5 {
		bus.Publish(VideoModeEvent{Port: port})
	}

	for want := range 5 {
		select {
		case e := <-received:
			if e.Port != want {
				t.Fatalf("event %d has port %d", want, e.Port)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)
	defer SubscribeToChannel[NotificationEvent](bus, ch)()

	bus.Publish(NotificationEvent{Event: "first"})
	bus.Publish(NotificationEvent{Event: "dropped when full"})

	select {
	case v := <-ch:
		if e, ok := v.(NotificationEvent); !ok || e.Event != "first" {
			t.Errorf("got %#v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(VideoModeEvent{
		Port: 1,
		Resolution: hal.VideoResolution{
			PixelResolution: hal.Resolution1920x1080,
			FrameRate:       hal.FrameRate60,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"port":1,"resolution":{"pixelResolution":3,"interlaced":false,"frameRate":4}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
