package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/logging"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("outbound closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubFanOut(t *testing.T) {
	bus := events.New()
	defer bus.Close()
	hub := NewHub(bus)
	hub.Start()
	defer hub.Stop()

	registered := hub.Open()
	idle := hub.Open()
	registered.Subscribe("onSignalChanged", "client")

	bus.Publish(events.NotificationEvent{
		Event:  "onSignalChanged",
		Params: map[string]any{"id": 0, "signalStatus": "stableSignal"},
	})

	var ev struct {
		JSONRPC string         `json:"jsonrpc"`
		Method  string         `json:"method"`
		Params  map[string]any `json:"params"`
	}
	if err := json.Unmarshal(receive(t, registered.Outbound()), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Method != "client.onSignalChanged" || ev.Params["signalStatus"] != "stableSignal" {
		t.Errorf("notification = %+v", ev)
	}

	select {
	case msg := <-idle.Outbound():
		t.Errorf("unregistered session received %s", msg)
	case <-time.After(100 * time.Millisecond):
	}

	if hub.Len() != 2 {
		t.Errorf("Len() = %d, want 2", hub.Len())
	}
	hub.Close(idle)
	hub.Close(idle)
	if hub.Len() != 1 {
		t.Errorf("Len() after close = %d, want 1", hub.Len())
	}
	if _, ok := <-idle.Outbound(); ok {
		t.Error("closed session outbound still open")
	}
	if idle.Send([]byte("x")) {
		t.Error("Send on closed session succeeded")
	}
}

func TestSessionUnsubscribe(t *testing.T) {
	s := newSession(logging.GetLogger("jsonrpc"))
	s.Subscribe("e", "a")
	s.Subscribe("e", "b")
	s.Unsubscribe("e", "a")
	if !s.Subscribed("e") {
		t.Error("expected remaining subscription")
	}
	s.Unsubscribe("e", "b")
	if s.Subscribed("e") {
		t.Error("expected no subscription")
	}
}

func TestWebSocketTransport(t *testing.T) {
	bus := events.New()
	defer bus.Close()
	hub := NewHub(bus)
	hub.Start()
	defer hub.Stop()

	router := newTestRouter(t)
	srv := httptest.NewServer(NewWebSocketHandler(router, hub, WebSocketOptions{}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	call := func(req map[string]any) map[string]json.RawMessage {
		t.Helper()
		if err := wsjson.Write(ctx, conn, req); err != nil {
			t.Fatalf("write: %v", err)
		}
		var resp map[string]json.RawMessage
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		return resp
	}

	resp := call(map[string]any{"jsonrpc": "2.0", "id": 1, "method": "org.rdk.HdmiInput.1.echo", "params": map[string]any{"value": "hi"}})
	var result struct {
		Value   string `json:"value"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(resp["result"], &result); err != nil || result.Value != "hi" || !result.Success {
		t.Fatalf("echo result = %s (%v)", resp["result"], err)
	}

	resp = call(map[string]any{"jsonrpc": "2.0", "id": 2, "method": "register", "params": map[string]any{"event": "onDevicesChanged", "id": "ws"}})
	if string(resp["result"]) != "0" {
		t.Fatalf("register result = %s", resp["result"])
	}

	bus.Publish(events.NotificationEvent{Event: "onDevicesChanged", Params: map[string]any{"devices": []any{}}})

	var ev Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if ev.Method != "ws.onDevicesChanged" {
		t.Errorf("notification method = %q", ev.Method)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 0 {
		t.Errorf("session not removed after close, Len() = %d", hub.Len())
	}
}

func TestSessionResponseOnFullQueue(t *testing.T) {
	s := newSession(logging.GetLogger("jsonrpc"))
	for i := 0; i < sessionQueueSize; i++ {
		if !s.Send([]byte("n")) {
			t.Fatalf("Send(%d) = false before the queue is full", i)
		}
	}
	if s.Send([]byte("n")) {
		t.Error("Send on a full queue = true, want dropped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if s.SendResponse(ctx, []byte("r")) {
		t.Error("SendResponse with no reader = true, want timeout")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-s.Outbound()
	}()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	if !s.SendResponse(ctx2, []byte("r")) {
		t.Error("SendResponse = false, want queued once space frees up")
	}

	s.close()
	if s.SendResponse(context.Background(), []byte("r")) {
		t.Error("SendResponse after close = true")
	}
}
