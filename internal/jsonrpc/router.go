package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/smazurov/hdmiinput/internal/logging"
)

// HandlerFunc serves one method.
type HandlerFunc func(ctx context.Context, params Params) (any, error)

// Subscriber receives Thunder event registrations. Stateless transports
// pass nil and get an error for register/unregister.
type Subscriber interface {
	Subscribe(event, clientID string)
	Unsubscribe(event, clientID string)
}

// Built-in method names.
const (
	MethodRegister   = "register"
	MethodUnregister = "unregister"
)

// Router maps method names to handlers for a single callsign.
type Router struct {
	callsign string
	major    uint64
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRouter creates a router for callsign (e.g. "org.rdk.HdmiInput").
// Versioned callsigns are accepted only for the major of apiVersion.
func NewRouter(callsign, apiVersion string) (*Router, error) {
	v, err := semver.NewVersion(apiVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid api version %q: %w", apiVersion, err)
	}
	return &Router{
		callsign: callsign,
		major:    v.Major(),
		logger:   logging.GetLogger("jsonrpc"),
		handlers: make(map[string]HandlerFunc),
	}, nil
}

// Callsign returns the callsign the router serves.
func (r *Router) Callsign() string { return r.callsign }

// Register adds or replaces the handler for a bare method name.
func (r *Router) Register(method string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = h
}

// Methods returns the registered bare method names.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// resolve strips "<callsign>." or "<callsign>.<major>." from method.
func (r *Router) resolve(method string) (string, bool) {
	rest, found := strings.CutPrefix(method, r.callsign+".")
	if !found {
		return method, !strings.Contains(method, ".")
	}
	if head, tail, ok := strings.Cut(rest, "."); ok {
		n, err := strconv.ParseUint(head, 10, 64)
		if err != nil || n != r.major {
			return "", false
		}
		rest = tail
	}
	if rest == "" || strings.Contains(rest, ".") {
		return "", false
	}
	return rest, true
}

// HandleMessage processes one encoded request and returns the encoded
// response, or nil when the request is a notification.
func (r *Router) HandleMessage(ctx context.Context, data []byte, sub Subscriber) []byte {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		r.logger.Warn("Failed to parse JSON-RPC message", "error", err)
		return r.encode(Response{
			JSONRPC: Version,
			Error:   &Error{Code: CodeParseError, Message: "Parse error", Data: err.Error()},
			ID:      nullID(nil),
		})
	}

	resp := r.Handle(ctx, req, sub)
	if req.IsNotification() {
		return nil
	}
	return r.encode(resp)
}

// Handle dispatches a decoded request.
func (r *Router) Handle(ctx context.Context, req Request, sub Subscriber) Response {
	resp := Response{JSONRPC: Version, ID: nullID(req.ID)}
	if req.JSONRPC != Version || req.Method == "" {
		resp.Error = &Error{Code: CodeInvalidRequest, Message: "Invalid request"}
		return resp
	}

	params, err := ParseParams(req.Params)
	if err != nil {
		resp.Error = asError(err)
		return resp
	}

	name, ok := r.resolve(req.Method)
	if !ok {
		resp.Error = &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: req.Method}
		return resp
	}

	r.logger.Debug("Received RPC request", "method", name)

	var result any
	switch name {
	case MethodRegister, MethodUnregister:
		result, err = register(name, params, sub)
	default:
		r.mu.RLock()
		h, found := r.handlers[name]
		r.mu.RUnlock()
		if !found {
			resp.Error = &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: req.Method}
			return resp
		}
		result, err = h(ctx, params)
	}
	if err != nil {
		r.logger.Warn("RPC handler failed", "method", name, "error", err)
		resp.Error = asError(err)
		return resp
	}
	resp.Result = result
	return resp
}

func register(method string, params Params, sub Subscriber) (any, error) {
	if sub == nil {
		return nil, Errorf(CodeInvalidRequest, "%s requires a WebSocket session", method)
	}
	event, ok := params.String("event")
	if !ok || event == "" {
		return nil, Errorf(CodeInvalidParams, "missing parameter %q", "event")
	}
	id, ok := params.String("id")
	if !ok || id == "" {
		return nil, Errorf(CodeInvalidParams, "missing parameter %q", "id")
	}
	if method == MethodRegister {
		sub.Subscribe(event, id)
	} else {
		sub.Unsubscribe(event, id)
	}
	return 0, nil
}

func asError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: CodeInternalError, Message: "Internal error", Data: err.Error()}
}

func (r *Router) encode(resp Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("Failed to encode JSON-RPC response", "error", err)
		data, _ = json.Marshal(Response{
			JSONRPC: Version,
			Error:   &Error{Code: CodeInternalError, Message: "Internal error"},
			ID:      resp.ID,
		})
	}
	return data
}
