package jsonrpc

import (
	"log/slog"
	"sync"

	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/logging"
	"github.com/smazurov/hdmiinput/internal/metrics"
)

// Hub tracks live sessions and fans bus notifications out to them.
type Hub struct {
	bus    *events.Bus
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	unsub    func()
}

// NewHub creates a hub fed by bus.
func NewHub(bus *events.Bus) *Hub {
	return &Hub{
		bus:      bus,
		logger:   logging.GetLogger("jsonrpc"),
		sessions: make(map[string]*Session),
	}
}

// Start subscribes to NotificationEvents. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsub != nil {
		return
	}
	h.unsub = h.bus.Subscribe(func(e events.NotificationEvent) {
		h.broadcast(e.Event, e.Params)
	})
}

// Stop unsubscribes from the bus and closes every session.
func (h *Hub) Stop() {
	h.mu.Lock()
	unsub := h.unsub
	h.unsub = nil
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	for _, s := range sessions {
		s.close()
		metrics.SessionClosed()
	}
}

// Open registers a new session.
func (h *Hub) Open() *Session {
	s := newSession(h.logger)
	h.mu.Lock()
	h.sessions[s.id] = s
	n := len(h.sessions)
	h.mu.Unlock()

	metrics.SessionOpened()
	h.logger.Info("JSON-RPC session opened", "session", s.id, "sessions", n)
	return s
}

// Close removes s and closes its outbound queue.
func (h *Hub) Close(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	n := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	metrics.SessionClosed()
	h.logger.Info("JSON-RPC session closed", "session", s.id, "sessions", n)
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) broadcast(event string, params any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.Notify(event, params)
	}
}
