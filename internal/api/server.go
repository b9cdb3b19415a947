// Package api is the HTTP surface of the daemon: JSON-RPC over HTTP POST
// and WebSocket, a small REST view of the HDMI inputs, SSE streams and
// Prometheus metrics.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/hdmiinput/internal/api/models"
	"github.com/smazurov/hdmiinput/internal/events"
	"github.com/smazurov/hdmiinput/internal/hdmiinput"
	"github.com/smazurov/hdmiinput/internal/jsonrpc"
	"github.com/smazurov/hdmiinput/internal/logging"
	"github.com/smazurov/hdmiinput/internal/version"
)

const authRealm = `Basic realm="HdmiInput API"`

// Options configures the API server.
type Options struct {
	AuthUsername string
	AuthPassword string

	// WebSocketOrigins are extra origins allowed to open /jsonrpc.
	WebSocketOrigins []string

	Service           *hdmiinput.Service
	Router            *jsonrpc.Router
	Hub               *jsonrpc.Hub
	EventBus          *events.Bus
	PrometheusHandler http.Handler // optional

	// OnListening runs once the listener is bound, before serving.
	OnListening func()
}

// Server is the huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

func (o *Options) authEnabled() bool {
	return o.AuthUsername != "" && o.AuthPassword != ""
}

// checkCredentials validates a basic auth header, falling back to the
// base64 "auth" query parameter used by SSE and WebSocket clients. It
// returns a message describing the failure, or "" on success.
func (s *Server) checkCredentials(authHeader, queryAuth string) string {
	var encoded string
	switch {
	case authHeader != "":
		const prefix = "Basic "
		if !strings.HasPrefix(authHeader, prefix) {
			return "Invalid authentication type"
		}
		encoded = authHeader[len(prefix):]
	case queryAuth != "":
		encoded = queryAuth
	default:
		return "Authentication required"
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "Invalid credentials format"
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "Invalid credentials format"
	}
	if user != s.options.AuthUsername || pass != s.options.AuthPassword {
		return "Invalid credentials"
	}
	return ""
}

// basicAuthMiddleware enforces basic auth on operations with a security
// requirement.
func (s *Server) basicAuthMiddleware(ctx huma.Context, next func(huma.Context)) {
	if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
		next(ctx)
		return
	}
	if msg := s.checkCredentials(ctx.Header("Authorization"), ctx.Query("auth")); msg != "" {
		ctx.SetHeader("WWW-Authenticate", authRealm)
		huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg)
		return
	}
	next(ctx)
}

// requireAuth wraps plain handlers registered outside huma.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	if !s.options.authEnabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if msg := s.checkCredentials(r.Header.Get("Authorization"), r.URL.Query().Get("auth")); msg != "" {
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, msg, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewServer creates the API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("HdmiInput API", version.APIVersion)
	config.Info.Description = "JSON-RPC and REST access to HDMI inputs"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.authEnabled() {
		api.UseMiddleware(server.basicAuthMiddleware)
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start listens on addr and blocks until the server is stopped.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HdmiInput API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.options.OnListening != nil {
		s.options.OnListening()
	}
	return s.httpServer.Serve(ln)
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		sessions := 0
		if s.options.Hub != nil {
			sessions = s.options.Hub.Len()
		}
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:   "ok",
				Message:  "API is healthy",
				Sessions: sessions,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application and interface version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:    info.Version,
				APIVersion: info.APIVersion,
				GitCommit:  info.GitCommit,
				BuildDate:  info.BuildDate,
				GoVersion:  info.GoVersion,
				Platform:   info.Platform,
			},
		}, nil
	})

	s.registerRPCRoutes()
	s.registerHDMIRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
