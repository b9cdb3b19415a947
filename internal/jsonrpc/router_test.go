package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter("org.rdk.HdmiInput", "1.0.0")
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	r.Register("echo", func(_ context.Context, p Params) (any, error) {
		v, _ := p.String("value")
		return map[string]any{"value": v, "success": true}, nil
	})
	r.Register("fail", func(context.Context, Params) (any, error) {
		return nil, errors.New("boom")
	})
	r.Register("badParams", func(context.Context, Params) (any, error) {
		return nil, Errorf(CodeInvalidParams, "nope")
	})
	return r
}

func TestNewRouterInvalidVersion(t *testing.T) {
	if _, err := NewRouter("org.rdk.HdmiInput", "one"); err == nil {
		t.Fatal("expected error for non-semver api version")
	}
}

func TestResolve(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		method string
		want   string
		ok     bool
	}{
		{"readEDID", "readEDID", true},
		{"org.rdk.HdmiInput.readEDID", "readEDID", true},
		{"org.rdk.HdmiInput.1.readEDID", "readEDID", true},
		{"org.rdk.HdmiInput.2.readEDID", "", false},
		{"org.rdk.HdmiInput.x.readEDID", "", false},
		{"org.rdk.HdmiInput.", "", false},
		{"org.rdk.Other.readEDID", "", false},
		{"org.rdk.HdmiInput.1.a.b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, ok := r.resolve(tt.method)
			if ok != tt.ok || got != tt.want {
				t.Errorf("resolve(%q) = %q, %v; want %q, %v", tt.method, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func decodeResponse(t *testing.T, data []byte) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid response %s: %v", data, err)
	}
	return m
}

func errorCode(t *testing.T, m map[string]json.RawMessage) int {
	t.Helper()
	raw, ok := m["error"]
	if !ok {
		return 0
	}
	var e Error
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("invalid error object %s: %v", raw, err)
	}
	return e.Code
}

func TestHandleMessage(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name     string
		msg      string
		wantCode int
		wantID   string
	}{
		{"ok", `{"jsonrpc":"2.0","id":1,"method":"org.rdk.HdmiInput.1.echo","params":{"value":"x"}}`, 0, "1"},
		{"string id", `{"jsonrpc":"2.0","id":"abc","method":"echo"}`, 0, `"abc"`},
		{"parse error", `{"jsonrpc":`, CodeParseError, "null"},
		{"wrong version", `{"jsonrpc":"1.0","id":2,"method":"echo"}`, CodeInvalidRequest, "2"},
		{"missing method", `{"jsonrpc":"2.0","id":3}`, CodeInvalidRequest, "3"},
		{"unknown method", `{"jsonrpc":"2.0","id":4,"method":"nope"}`, CodeMethodNotFound, "4"},
		{"wrong major", `{"jsonrpc":"2.0","id":5,"method":"org.rdk.HdmiInput.2.echo"}`, CodeMethodNotFound, "5"},
		{"array params", `{"jsonrpc":"2.0","id":6,"method":"echo","params":[1]}`, CodeInvalidParams, "6"},
		{"handler error", `{"jsonrpc":"2.0","id":7,"method":"fail"}`, CodeInternalError, "7"},
		{"handler rpc error", `{"jsonrpc":"2.0","id":8,"method":"badParams"}`, CodeInvalidParams, "8"},
		{"register without session", `{"jsonrpc":"2.0","id":9,"method":"register","params":{"event":"e","id":"c"}}`, CodeInvalidRequest, "9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := r.HandleMessage(context.Background(), []byte(tt.msg), nil)
			m := decodeResponse(t, data)
			if got := errorCode(t, m); got != tt.wantCode {
				t.Errorf("error code = %d, want %d (%s)", got, tt.wantCode, data)
			}
			if string(m["id"]) != tt.wantID {
				t.Errorf("id = %s, want %s", m["id"], tt.wantID)
			}
			if string(m["jsonrpc"]) != `"2.0"` {
				t.Errorf("jsonrpc = %s", m["jsonrpc"])
			}
		})
	}
}

func TestHandleMessageNotification(t *testing.T) {
	r := newTestRouter(t)
	called := false
	r.Register("ping", func(context.Context, Params) (any, error) {
		called = true
		return 0, nil
	})
	if resp := r.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"ping"}`), nil); resp != nil {
		t.Errorf("notification produced response %s", resp)
	}
	if !called {
		t.Error("handler not called for notification")
	}
}

type fakeSubscriber struct {
	subs   []string
	unsubs []string
}

func (f *fakeSubscriber) Subscribe(event, id string)   { f.subs = append(f.subs, id+"."+event) }
func (f *fakeSubscriber) Unsubscribe(event, id string) { f.unsubs = append(f.unsubs, id+"."+event) }

func TestRegisterUnregister(t *testing.T) {
	r := newTestRouter(t)
	sub := &fakeSubscriber{}

	data := r.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"org.rdk.HdmiInput.1.register","params":{"event":"onSignalChanged","id":"client.events"}}`), sub)
	m := decodeResponse(t, data)
	if string(m["result"]) != "0" {
		t.Errorf("register result = %s, want 0", m["result"])
	}
	if len(sub.subs) != 1 || sub.subs[0] != "client.events.onSignalChanged" {
		t.Errorf("subs = %v", sub.subs)
	}

	data = r.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":2,"method":"unregister","params":{"event":"onSignalChanged","id":"client.events"}}`), sub)
	if m := decodeResponse(t, data); string(m["result"]) != "0" {
		t.Errorf("unregister result = %s, want 0", m["result"])
	}
	if len(sub.unsubs) != 1 {
		t.Errorf("unsubs = %v", sub.unsubs)
	}

	data = r.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":3,"method":"register","params":{"id":"client"}}`), sub)
	if got := errorCode(t, decodeResponse(t, data)); got != CodeInvalidParams {
		t.Errorf("register without event: code = %d, want %d", got, CodeInvalidParams)
	}
}

func TestParamsString(t *testing.T) {
	p, err := ParseParams(json.RawMessage(`{"s":"1","n":2,"f":1.5,"b":true,"z":null,"o":{"a":1}}`))
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"s", "1", true},
		{"n", "2", true},
		{"f", "1.5", true},
		{"b", "true", true},
		{"z", "", true},
		{"o", `{"a":1}`, true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := p.String(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("String(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
	if !p.Has("z") || p.Has("missing") {
		t.Error("Has() mismatch")
	}
}

func TestParseParamsEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", " "} {
		p, err := ParseParams(json.RawMessage(raw))
		if err != nil || p == nil || len(p) != 0 {
			t.Errorf("ParseParams(%q) = %v, %v", raw, p, err)
		}
	}
}
