// Package api serves the column registry and CSV ingestion over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/colinfo/colinfo/internal/colinfo"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/ws"
)

const defaultPreviewRows = 100

// Server is the REST API server.
type Server struct {
	schemaPath string
	logger     *slog.Logger
	port       int
	server     *http.Server
	hub        *ws.Hub
	cors       bool

	ingestOpts []ingest.Option
	csvOpts    []source.CSVOption

	// registry is swapped whole on reload; ingestions in flight keep the
	// registry they started with.
	mu       sync.RWMutex
	registry *colinfo.Registry
}

// Option configures the API server.
type Option func(*Server)

// WithHub sets the WebSocket hub that receives ingestion events.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithCORS allows cross-origin requests.
func WithCORS(enabled bool) Option {
	return func(s *Server) { s.cors = enabled }
}

// WithIngestOptions sets options applied to every ingestion.
func WithIngestOptions(opts ...ingest.Option) Option {
	return func(s *Server) { s.ingestOpts = opts }
}

// WithCSVOptions sets how uploaded CSV bodies are decoded.
func WithCSVOptions(opts ...source.CSVOption) Option {
	return func(s *Server) { s.csvOpts = opts }
}

// New creates a server for reg, which was loaded from schemaPath.
func New(reg *colinfo.Registry, schemaPath string, logger *slog.Logger, port int, opts ...Option) *Server {
	s := &Server{
		registry:   reg,
		schemaPath: schemaPath,
		logger:     logger,
		port:       port,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry currently in use.
func (s *Server) Registry() *colinfo.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

func (s *Server) setRegistry(reg *colinfo.Registry) {
	s.mu.Lock()
	s.registry = reg
	s.mu.Unlock()
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var h http.Handler = mux
	if s.cors {
		h = corsMiddleware(h)
	}
	return requestLogger(s.logger, h)
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}
	s.logger.Info("starting api server", "port", s.port, "schema", s.schemaPath)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/schema", s.handleGetSchema)
	mux.HandleFunc("POST /api/schema/reload", s.handleReloadSchema)
	mux.HandleFunc("POST /api/ingest", s.handleIngest)

	if s.hub != nil {
		mux.HandleFunc("/api/ws", s.hub.HandleWebSocket)
	}
}
