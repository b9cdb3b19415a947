package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/hdmiinput/internal/hal"
)

// queueGroup lets several HAL servers share the request load.
const queueGroup = "hdmiin-hal"

// Server answers HAL requests with a local backend.
type Server struct {
	conn    *nats.Conn
	backend hal.HdmiInput
	timeout time.Duration
	logger  *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// Serve exposes backend on the request subjects until Stop is called.
func Serve(conn *nats.Conn, backend hal.HdmiInput, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		conn:    conn,
		backend: backend,
		timeout: DefaultTimeout,
		logger:  logger.With("component", "hal-server"),
	}

	sub, err := conn.QueueSubscribe(SubjectPrefix+".*", queueGroup, s.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s.*: %w", SubjectPrefix, err)
	}
	s.sub = sub

	s.logger.Info("Serving HAL requests", "subject", SubjectPrefix+".*")
	return s, nil
}

// Stop unsubscribes. The connection and backend stay open.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
		s.sub = nil
	}
}

func (s *Server) handle(msg *nats.Msg) {
	op := strings.TrimPrefix(msg.Subject, SubjectPrefix+".")

	var resp Response
	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		resp.Error = fmt.Sprintf("decode request: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		resp = s.dispatch(ctx, op, req)
		cancel()
	}

	if resp.Error != "" {
		s.logger.Debug("HAL request failed", "op", op, "port", req.Port, "error", resp.Error)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to marshal HAL response", "op", op, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("Failed to respond to HAL request", "op", op, "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, op string, req Request) Response {
	var (
		resp Response
		err  error
	)
	b := s.backend

	switch op {
	case OpNumberOfInputs:
		resp.Count, err = b.NumberOfInputs(ctx)
	case OpIsPortConnected:
		resp.Connected, err = b.IsPortConnected(ctx, req.Port)
	case OpSelectPort:
		err = b.SelectPort(ctx, req.Port)
	case OpScaleVideo:
		err = b.ScaleVideo(ctx, req.X, req.Y, req.Width, req.Height)
	case OpEDIDBytes:
		resp.Data, err = b.EDIDBytes(ctx, req.Port)
	case OpWriteEDID:
		err = b.WriteEDID(ctx, req.Port, req.EDID)
	case OpSPDInfo:
		resp.Data, err = b.SPDInfo(ctx, req.Port)
	case OpSetEdidVersion:
		err = b.SetEdidVersion(ctx, req.Port, req.Version)
	case OpEdidVersion:
		resp.Version, err = b.EdidVersion(ctx, req.Port)
	case OpSupportedGameFeatures:
		resp.Features, err = b.SupportedGameFeatures(ctx)
	case OpALLMStatus:
		resp.Enabled, err = b.ALLMStatus(ctx, req.Port)
	default:
		err = fmt.Errorf("%w: unknown operation %q", hal.ErrNotSupported, op)
	}

	if err != nil {
		return Response{Error: err.Error(), Code: codeOf(err)}
	}
	return resp
}
