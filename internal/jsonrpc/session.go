package jsonrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const sessionQueueSize = 64

// Session is one connected client. Responses and notifications are queued
// on Outbound and written by the transport.
type Session struct {
	id     string
	logger *slog.Logger
	out    chan []byte

	mu     sync.Mutex
	subs   map[string]map[string]struct{} // event -> client ids
	closed bool
}

func newSession(logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		logger: logger.With("session", id),
		out:    make(chan []byte, sessionQueueSize),
		subs:   make(map[string]map[string]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Outbound is closed when the session is closed.
func (s *Session) Outbound() <-chan []byte { return s.out }

// Subscribe implements Subscriber.
func (s *Session) Subscribe(event, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.subs[event]
	if !ok {
		ids = make(map[string]struct{})
		s.subs[event] = ids
	}
	ids[clientID] = struct{}{}
	s.logger.Debug("Registered event", "event", event, "client", clientID)
}

// Unsubscribe implements Subscriber.
func (s *Session) Unsubscribe(event, clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ids, ok := s.subs[event]; ok {
		delete(ids, clientID)
		if len(ids) == 0 {
			delete(s.subs, event)
		}
	}
	s.logger.Debug("Unregistered event", "event", event, "client", clientID)
}

// Subscribed reports whether any client id is registered for event.
func (s *Session) Subscribed(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[event]) > 0
}

// Send queues msg. It returns false when the session is closed or its
// queue is full.
func (s *Session) Send(msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueue(msg)
}

// SendResponse queues a response, waiting for queue space until ctx is
// done. Unlike notifications, responses are not dropped on a full queue.
func (s *Session) SendResponse(ctx context.Context, msg []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- msg:
		return true
	case <-ctx.Done():
		s.logger.Warn("Dropping JSON-RPC response", "error", ctx.Err())
		return false
	}
}

// enqueue must be called with s.mu held.
func (s *Session) enqueue(msg []byte) bool {
	if s.closed {
		return false
	}
	select {
	case s.out <- msg:
		return true
	default:
		s.logger.Warn("Session queue full, dropping message")
		return false
	}
}

// Notify queues "<id>.<event>" for every client id registered for event.
func (s *Session) Notify(event string, params any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.subs[event] {
		data, err := json.Marshal(Event{JSONRPC: Version, Method: id + "." + event, Params: params})
		if err != nil {
			s.logger.Error("Failed to encode notification", "event", event, "error", err)
			return
		}
		s.enqueue(data)
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}
