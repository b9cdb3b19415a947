package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/hdmiinput/internal/api/models"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
)

// registerRPCRoutes registers the stateless POST endpoint and the
// WebSocket endpoint that supports event registration.
func (s *Server) registerRPCRoutes() {
	if s.options.Router == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "jsonrpc-call",
		Method:      http.MethodPost,
		Path:        "/jsonrpc",
		Summary:     "JSON-RPC call",
		Description: "Invoke an org.rdk.HdmiInput method. Event registration needs the WebSocket endpoint.",
		Tags:        []string{"jsonrpc"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *models.RPCRequest) (*models.RPCResponse, error) {
		resp := s.options.Router.HandleMessage(ctx, input.RawBody, nil)
		if resp == nil {
			return &models.RPCResponse{Status: http.StatusNoContent}, nil
		}
		return &models.RPCResponse{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Body:        resp,
		}, nil
	})

	if s.options.Hub != nil {
		ws := jsonrpc.NewWebSocketHandler(s.options.Router, s.options.Hub, jsonrpc.WebSocketOptions{
			OriginPatterns: s.options.WebSocketOrigins,
		})
		s.mux.Handle("GET /jsonrpc", s.requireAuth(ws))
	}
}
