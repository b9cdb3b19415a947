package jsonrpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/smazurov/hdmiinput/internal/logging"
)

const (
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
	pingInterval = 15 * time.Second
)

// WebSocketOptions configures the WebSocket transport.
type WebSocketOptions struct {
	// OriginPatterns are host patterns allowed to connect cross-origin.
	// Empty means same-origin only.
	OriginPatterns []string
}

// WebSocketHandler serves JSON-RPC over WebSocket, one session per
// connection.
type WebSocketHandler struct {
	router *Router
	hub    *Hub
	opts   WebSocketOptions
	logger *slog.Logger
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(router *Router, hub *Hub, opts WebSocketOptions) *WebSocketHandler {
	return &WebSocketHandler{
		router: router,
		hub:    hub,
		opts:   opts,
		logger: logging.GetLogger("jsonrpc"),
	}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := h.hub.Open()
	defer h.hub.Close(sess)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		defer cancel()
		h.writeLoop(ctx, conn, sess)
	}()

	go h.pingLoop(ctx, cancel, conn, sess)

	err = h.readLoop(ctx, conn, sess)
	cancel()
	<-writeDone

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.logger.Debug("WebSocket closed by client", "session", sess.ID())
	case err != nil && !errors.Is(err, context.Canceled):
		h.logger.Warn("WebSocket read failed", "session", sess.ID(), "error", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *Session) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.logger.Debug("Ignoring binary WebSocket message", "session", sess.ID())
			continue
		}
		resp := h.router.HandleMessage(ctx, data, sess)
		if resp == nil {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, writeTimeout)
		sent := sess.SendResponse(sctx, resp)
		cancel()
		if !sent && ctx.Err() == nil {
			h.logger.Warn("JSON-RPC response not delivered", "session", sess.ID(), "bytes", len(resp))
		}
	}
}

func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sess.Outbound():
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.logger.Warn("WebSocket write failed", "session", sess.ID(), "error", err)
				return
			}
		}
	}
}

// pingLoop keeps idle connections alive and tears the session down when the
// peer stops answering.
func (h *WebSocketHandler) pingLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				if ctx.Err() == nil {
					h.logger.Warn("WebSocket ping failed", "session", sess.ID(), "error", err)
				}
				cancel()
				return
			}
		}
	}
}
