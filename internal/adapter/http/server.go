package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightatlas/insight-atlas/internal/analysis"
	"github.com/insightatlas/insight-atlas/internal/domain"
	"github.com/insightatlas/insight-atlas/internal/narrative"
)

const (
	serviceName  = "Insight Atlas API"
	maxBodyBytes = 1 << 20
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (domain.AnalysisResult, error)
}

// Options tunes the HTTP server.
type Options struct {
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string
	// WriteTimeout bounds a whole /analyze call, backend round trip included.
	WriteTimeout time.Duration
}

// Server exposes the analysis API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// analyzeRequest is the POST /analyze body.
type analyzeRequest struct {
	Text     string `json:"text"`
	LLMToken string `json:"llm_token"`
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(addr string, analyzer Analyzer, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withCORS(mux, opts.AllowedOrigins),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /{$}", handleStatus)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleStatus(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"service": serviceName,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		Text:   req.Text,
		Token:  req.LLMToken,
		Source: "http",
	})
	switch {
	case errors.Is(err, domain.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "text is required")
		return
	case err != nil:
		s.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, narrative.Parse(string(body)))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
